package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/storage/chunkstore"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/classifier"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/embedding"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/llm"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/tokenizer"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/vectorindex"
	"github.com/turtacn/FairReview-Intelligence/internal/testutil"
	apperrors "github.com/turtacn/FairReview-Intelligence/pkg/errors"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

var corpus = []types.Chunk{
	{Content: "不得要求企业在本地落户或设立分支机构。", Metadata: types.ChunkMetadata{FileName: "审查标准.docx", ParentChapterTitle: "第二章 市场准入"}},
	{Content: "不得对外地企业设置歧视性收费。", Metadata: types.ChunkMetadata{FileName: "审查标准.docx", ParentChapterTitle: "第三章 商品要素流动"}},
	{Content: "   ", Metadata: types.ChunkMetadata{FileName: "审查标准.docx"}},
}

// runeTokens splits text into single characters.
var runeTokens = tokenizer.Func(func(text string) []string {
	return tokenizer.Clean(strings.Split(text, ""))
})

type countingEmbedder struct{ batches atomic.Int32 }

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) > 1 {
		e.batches.Add(1)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{1, float32(strings.Count(t, "落户")), float32(strings.Count(t, "收费"))}
	}
	return out, nil
}

func scriptedGenerator() *llm.MockGenerator {
	return &llm.MockGenerator{ChatFunc: func(_ context.Context, messages []llm.Message) (string, error) {
		last := messages[len(messages)-1].Content
		switch {
		case strings.Contains(last, llm.ProbeToken):
			return llm.ProbeToken, nil
		case strings.Contains(last, "任务：将输入句子"):
			return `{"normalized_query":"要求企业在本地落户","keywords":["本地落户"],"chapter_hints":[]}`, nil
		default:
			return "[]", nil
		}
	}}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewDefault()
	cfg.ChunkStore.Path = filepath.Join(dir, "chunks.json")
	cfg.Vector.PersistDir = filepath.Join(dir, "vectorstore")
	cfg.Sink.OutputDir = filepath.Join(dir, "out")
	return cfg
}

func newTestPipeline(cfg *config.Config, emb embedding.Embedder, opts ...Option) *Pipeline {
	base := []Option{
		WithGenerator(scriptedGenerator()),
		WithEmbedder(emb),
		WithTokenizer(runeTokens),
		WithPredictor(classifier.Func(func(context.Context, string) (classifier.Prediction, error) {
			return classifier.Of(0, 0.9), nil
		})),
	}
	return New(cfg, nil, nil, append(base, opts...)...)
}

func TestPipeline_SearchBuildsThenLoadsIndex(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, chunkstore.Save(cfg.ChunkStore.Path, corpus))
	ctx := context.Background()

	emb := &countingEmbedder{}
	p := newTestPipeline(cfg, emb)
	res, hits, err := p.Search(ctx, "要求在本地落户")
	require.NoError(t, err)
	assert.Equal(t, "要求企业在本地落户", res.NormalizedQuery)
	require.NotEmpty(t, hits)
	assert.Contains(t, hits[0].Chunk.Content, "本地落户")
	assert.FileExists(t, filepath.Join(cfg.Vector.PersistDir, vectorindex.FlatFileName))
	assert.Equal(t, int32(1), emb.batches.Load())
	require.NoError(t, p.Close())

	reopened := &countingEmbedder{}
	p2 := newTestPipeline(cfg, reopened)
	_, hits, err = p2.Search(ctx, "歧视性收费")
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, int32(0), reopened.batches.Load(), "persisted index is loaded, not rebuilt")
}

func TestPipeline_ForceRecreate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vector.ForceRecreate = true
	emb := &countingEmbedder{}

	require.NoError(t, newTestPipeline(cfg, emb, WithChunks(corpus)).BuildIndex(context.Background(), true))
	require.NoError(t, newTestPipeline(cfg, emb, WithChunks(corpus)).BuildIndex(context.Background(), true))
	assert.Equal(t, int32(2), emb.batches.Load())
}

func TestPipeline_MissingChunkStore(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(cfg, &countingEmbedder{})

	err := p.BuildIndex(context.Background(), false)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeChunkStoreNotFound))
}

func TestPipeline_EmptyCorpus(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(cfg, &countingEmbedder{}, WithChunks([]types.Chunk{{Content: " "}}))

	err := p.BuildIndex(context.Background(), false)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmptyCorpus))
}

func TestPipeline_ReviewText(t *testing.T) {
	cfg := testConfig(t)
	metrics, collector := testutil.NewTestMetrics(t)
	p := New(cfg, nil, metrics,
		WithGenerator(scriptedGenerator()),
		WithEmbedder(&countingEmbedder{}),
		WithTokenizer(runeTokens),
		WithChunks(corpus),
		WithPredictor(classifier.Func(func(context.Context, string) (classifier.Prediction, error) {
			return classifier.Of(28, 0.81), nil
		})),
	)
	ctx := context.Background()
	require.NoError(t, p.Build(ctx))
	out := testutil.ScrapeMetrics(t, collector)
	assert.Contains(t, out, `test_component_ready{component="analyzer"} 1`)
	assert.Contains(t, out, `test_component_ready{component="sink"} 1`)

	report, done, err := p.ReviewText(ctx, "要求外地企业必须在本地落户才能参与投标", "req-1")
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, types.SourceClassifier, report.Findings[0].Source)
	assert.Equal(t, types.UserInputFile, report.Findings[0].FileName)
	assert.Equal(t, "req-1", done.RequestID)
	assert.FileExists(t, done.JSONArtifact)
	assert.FileExists(t, done.ReportArtifact)
}

func TestPipeline_Structurize(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	doc := "第一章 总则\n\n第一条 为规范公平竞争审查制定本办法。\n\n第二章 审查标准\n\n第二条 不得限定经营。\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "办法.txt"), []byte(doc), 0o644))

	clauses := &llm.MockGenerator{ChatFunc: func(context.Context, []llm.Message) (string, error) {
		return `["第一条 为规范公平竞争审查制定本办法。"]`, nil
	}}
	p := New(cfg, nil, nil, WithGenerator(clauses))
	chunks, err := p.Structurize(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "第二章 审查标准", chunks[1].Metadata.ParentChapterTitle)
	assert.Equal(t, 2, chunks[1].Metadata.MinChunkID)

	stored, err := chunkstore.Load(cfg.ChunkStore.Path)
	require.NoError(t, err)
	assert.Len(t, stored, len(chunks))
	assert.Equal(t, "办法.txt", stored[0].Metadata.FileName)

	cached, err := p.Chunks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, chunks, cached)

	_, err = p.Structurize(context.Background(), t.TempDir())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestPipeline_ProbeOnStart(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		err   error
		level string
		msg   string
	}{
		{"ok", "LLM_OK", nil, "info", "llm connection probe ok"},
		{"unexpected", "你好", nil, "warn", "unexpected reply"},
		{"failure", "", errors.New("dial tcp: timeout"), "warn", "llm connection probe failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.LLM.ProbeOnStart = true
			logger := testutil.NewMockLogger()
			gen := &llm.MockGenerator{ChatFunc: func(context.Context, []llm.Message) (string, error) { return tc.reply, tc.err }}
			p := New(cfg, logger, nil, WithGenerator(gen))

			got, err := p.Generator(context.Background())
			require.NoError(t, err)
			assert.Same(t, gen, got)
			_, _ = p.Generator(context.Background())

			assert.Len(t, gen.Calls(), 1, "probe runs once")
			assert.True(t, logger.HasMessageContaining(tc.level, tc.msg))
		})
	}
}

func TestPipeline_CloseReverseOrder(t *testing.T) {
	p := New(config.NewDefault(), nil, nil)
	var order []string
	p.onClose("a", func() error { order = append(order, "a"); return nil })
	p.onClose("b", func() error { order = append(order, "b"); return errors.New("b failed") })
	p.onClose("c", func() error { order = append(order, "c"); return errors.New("c failed") })

	err := p.Close()
	assert.EqualError(t, err, "c failed")
	assert.Equal(t, []string{"c", "b", "a"}, order)
	assert.NoError(t, p.Close())
}

func TestPipeline_Checks(t *testing.T) {
	p := New(config.NewDefault(), nil, nil)
	p.addCheck("redis", func(context.Context) error { return nil })
	p.addCheck("minio", func(context.Context) error { return errors.New("down") })

	checks := p.Checks()
	require.Len(t, checks, 2)
	assert.Equal(t, "redis", checks[0].Name())
	assert.NoError(t, checks[0].Check(context.Background()))
	assert.Error(t, checks[1].Check(context.Background()))
}

type fakeLock struct {
	lockErr  error
	unlocked bool
}

func (f *fakeLock) Lock(context.Context) error             { return f.lockErr }
func (f *fakeLock) TryLock(context.Context) (bool, error) { return f.lockErr == nil, f.lockErr }
func (f *fakeLock) Unlock(context.Context) error           { f.unlocked = true; return nil }
func (f *fakeLock) Extend(context.Context, time.Duration) (bool, error) {
	return true, nil
}

func TestWithLock(t *testing.T) {
	lock := &fakeLock{}
	called := false
	require.NoError(t, withLock(context.Background(), lock, func(context.Context) error { called = true; return nil }))
	assert.True(t, called)
	assert.True(t, lock.unlocked)

	busy := &fakeLock{lockErr: errors.New("failed to acquire lock")}
	err := withLock(context.Background(), busy, func(context.Context) error {
		t.Fatal("must not run without the lock")
		return nil
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeIndexBuildFailed))
	assert.False(t, busy.unlocked)
}

//Personal.AI order the ending
