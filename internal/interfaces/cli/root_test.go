package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/FairReview-Intelligence/internal/application/pipeline"
	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/storage/chunkstore"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/classifier"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/llm"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/taxonomy"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/tokenizer"
	apperrors "github.com/turtacn/FairReview-Intelligence/pkg/errors"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// ─── fixtures ──────────────────────────────────────────────────────────────

type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{1, float32(strings.Count(t, "落户")), float32(strings.Count(t, "收费"))}
	}
	return out, nil
}

var runeTokens = tokenizer.Func(func(text string) []string {
	return tokenizer.Clean(strings.Split(text, ""))
})

func scriptedGenerator() *llm.MockGenerator {
	return &llm.MockGenerator{ChatFunc: func(_ context.Context, messages []llm.Message) (string, error) {
		last := messages[len(messages)-1].Content
		switch {
		case strings.Contains(last, "任务：将输入句子"):
			return `{"normalized_query":"要求企业在本地落户","keywords":["本地落户"],"chapter_hints":[]}`, nil
		case strings.Contains(last, "你好"):
			return "你好，有什么可以帮您？", nil
		default:
			return "[]", nil
		}
	}}
}

func rule28(t *testing.T) string {
	t.Helper()
	s, ok := taxonomy.Lookup(28)
	require.True(t, ok)
	return s
}

func testCorpus(t *testing.T) []types.Chunk {
	return []types.Chunk{
		{Content: rule28(t) + "，不得要求企业在本地落户。", Metadata: types.ChunkMetadata{FileName: "审查标准.docx", ParentChapterTitle: "第三章 市场准入和退出标准"}},
		{Content: "不得对外地企业设置歧视性收费。", Metadata: types.ChunkMetadata{FileName: "审查标准.docx", ParentChapterTitle: "第四章 商品和要素自由流动标准"}},
	}
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

func predictorOf(label int, conf float64) classifier.Predictor {
	return classifier.Func(func(context.Context, string) (classifier.Prediction, error) {
		return classifier.Of(label, conf), nil
	})
}

// run executes args against a root command wired to cfg and fake model
// clients, returning stdout and the error.
func run(t *testing.T, cfg *config.Config, gen llm.Generator, args ...string) (string, error) {
	t.Helper()
	if gen == nil {
		gen = scriptedGenerator()
	}
	root := NewRootCommand(
		WithConfig(cfg),
		WithLogger(logging.NewNopLogger()),
		WithPipelineOptions(
			pipeline.WithGenerator(gen),
			pipeline.WithEmbedder(keywordEmbedder{}),
			pipeline.WithTokenizer(runeTokens),
			pipeline.WithPredictor(predictorOf(28, 0.81)),
		),
	)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// ─── root ──────────────────────────────────────────────────────────────────

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "fairreview", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Version)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"structurize", "index", "retrieve", "review", "eval", "chat", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	for _, flag := range []string{"config", "log-level", "output", "verbose", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
	assert.Equal(t, OutputText, cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestRootCommand_InvalidOutput(t *testing.T) {
	_, err := run(t, testConfig(t), nil, "--output", "yaml", "index")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestRootCommand_UnknownSubcommand(t *testing.T) {
	_, err := run(t, testConfig(t), nil, "unknownsubcommand")
	assert.Error(t, err)
}

func TestRootCommand_LoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fairreview.yaml")
	yaml := "llm:\n  model: test-model\nretrieval:\n  final_k: 7\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	var got *CLIContext
	root := NewRootCommand(WithLogger(logging.NewNopLogger()))
	root.AddCommand(&cobra.Command{
		Use: "probe-context",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetCLIContext(cmd)
			got = c
			return err
		},
	})
	root.SetArgs([]string{"--config", path, "-o", "JSON", "probe-context"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	require.NotNil(t, got)
	assert.Equal(t, "test-model", got.Config.LLM.Model)
	assert.Equal(t, 7, got.Config.Retrieval.FinalK)
	assert.Equal(t, OutputJSON, got.OutputFormat)
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := &cobra.Command{}
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)

	cmd.SetContext(context.Background())
	_, err = GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"Rank", "File"}, [][]string{{"1", "审查标准.docx"}, {"10"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Rank  File         ", lines[0])
	assert.Equal(t, "----  -------------", lines[1])
	assert.Equal(t, "1     审查标准.docx", lines[2])
	assert.Equal(t, "10                 ", lines[3])

	assert.Empty(t, FormatTable(nil, nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate("a\n b", 10))
	assert.Equal(t, "不得限...", truncate("不得限定经营", 3))
}

// ─── version ───────────────────────────────────────────────────────────────

func TestVersionCmd(t *testing.T) {
	orig := [3]string{Version, GitCommit, BuildDate}
	Version, GitCommit, BuildDate = "1.2.3", "abc123", "2026-10-01"
	defer func() { Version, GitCommit, BuildDate = orig[0], orig[1], orig[2] }()

	// version never loads configuration.
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", "/does/not/exist.yaml", "version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "fairreview 1.2.3 (commit: abc123, built: 2026-10-01)\n", out.String())

	out.Reset()
	root = NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())
	var info BuildInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, BuildInfo{Version: "1.2.3", Commit: "abc123", BuildDate: "2026-10-01"}, info)
}

// ─── structurize & index ───────────────────────────────────────────────────

func TestStructurizeCmd(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	doc := "第一章 总则\n\n第一条 为规范公平竞争审查制定本办法。\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "办法.txt"), []byte(doc), 0o644))
	clauses := &llm.MockGenerator{ChatFunc: func(context.Context, []llm.Message) (string, error) {
		return `["第一条 为规范公平竞争审查制定本办法。"]`, nil
	}}

	out, err := run(t, cfg, clauses, "structurize", dir)
	require.NoError(t, err)
	assert.Equal(t, "OK: 1 chunks saved to "+cfg.ChunkStore.Path+"\n", out)

	stored, err := chunkstore.Load(cfg.ChunkStore.Path)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestStructurizeCmd_NoInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Structurizer.InputDir = ""
	_, err := run(t, cfg, nil, "structurize")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestIndexCmd(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, chunkstore.Save(cfg.ChunkStore.Path, testCorpus(t)))

	out, err := run(t, cfg, nil, "index", "--force")
	require.NoError(t, err)
	assert.Equal(t, "OK: vector index ready (backend=flat, rebuilt=true)\n", out)

	out, err = run(t, cfg, nil, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "rebuilt=false")
}

func TestIndexCmd_MissingChunkStore(t *testing.T) {
	_, err := run(t, testConfig(t), nil, "index")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeChunkStoreNotFound))
}

// ─── retrieve ──────────────────────────────────────────────────────────────

func TestRetrieveCmd(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, chunkstore.Save(cfg.ChunkStore.Path, testCorpus(t)))

	out, err := run(t, cfg, nil, "retrieve", "要求", "在本地落户")
	require.NoError(t, err)
	assert.Contains(t, out, "query: 要求 在本地落户\n")
	assert.Contains(t, out, "normalized: 要求企业在本地落户\n")
	assert.Contains(t, out, "keywords: 本地落户\n")
	assert.Contains(t, out, "#1 score=")

	out, err = run(t, cfg, nil, "-o", "json", "retrieve", "--top-k", "1", "落户")
	require.NoError(t, err)
	var res RetrieveResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Hits, 1)
	assert.Equal(t, 1, res.Hits[0].Rank)
	assert.Contains(t, res.Hits[0].Content, "本地落户")
	assert.Equal(t, "审查标准.docx", res.Hits[0].File)

	out, err = run(t, cfg, nil, "-o", "table", "retrieve", "落户")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Rank  Score"))
}

func TestRetrieveCmd_Validation(t *testing.T) {
	cfg := testConfig(t)
	_, err := run(t, cfg, nil, "retrieve", "  ")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = run(t, cfg, nil, "retrieve", "--top-k", "-1", "落户")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestRetrieveResult_EmptyText(t *testing.T) {
	res := newRetrieveResult("q", types.FallbackIntent("q"), nil)
	assert.Equal(t, "query: q\nnormalized: q\nno matching clause found\n", res.String())
	assert.Empty(t, res.TableRows())
}

// ─── review ────────────────────────────────────────────────────────────────

func TestReviewCmd_Text(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, chunkstore.Save(cfg.ChunkStore.Path, testCorpus(t)))

	out, err := run(t, cfg, nil, "review", "--text", "要求外地企业必须在本地落户才能参与投标", "--request-id", "req-9")
	require.NoError(t, err)
	assert.Contains(t, out, "风险等级：")
	assert.Contains(t, out, "结果条数：1\n")
	assert.Contains(t, out, "- 置信度：0.81\n")
	assert.Contains(t, out, "- 分析来源："+types.SourceClassifier+"\n")

	out, err = run(t, cfg, nil, "-o", "json", "review", "--text", "要求外地企业必须在本地落户才能参与投标", "--request-id", "req-9")
	require.NoError(t, err)
	var res ReviewOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "req-9", res.Completed.RequestID)
	require.Len(t, res.Report.Findings, 1)
	assert.Equal(t, types.UserInputFile, res.Report.Findings[0].FileName)
	assert.FileExists(t, res.Completed.JSONArtifact)
}

func TestReviewCmd_File(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, chunkstore.Save(cfg.ChunkStore.Path, testCorpus(t)))
	path := filepath.Join(t.TempDir(), "通知.txt")
	require.NoError(t, os.WriteFile(path, []byte("要求外地企业必须在本地落户才能参与投标。"), 0o644))

	out, err := run(t, cfg, nil, "-o", "table", "review", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "通知.txt")
}

func TestReviewOptions(t *testing.T) {
	assert.Error(t, (&reviewOptions{}).validate())
	assert.Error(t, (&reviewOptions{text: "a", file: "b"}).validate())
	assert.NoError(t, (&reviewOptions{chunks: "c.json"}).validate())

	_, err := run(t, testConfig(t), nil, "review")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

// ─── eval ──────────────────────────────────────────────────────────────────

func writeEvalWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"text", "label"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"投标人须在本地设立分支机构", 28}))
	path := filepath.Join(t.TempDir(), "eval.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestEvalCmd(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, chunkstore.Save(cfg.ChunkStore.Path, testCorpus(t)))
	path := writeEvalWorkbook(t)

	out, err := run(t, cfg, nil, "eval", "--file", path, "--k", "3", "--disable-merge-classifier")
	require.NoError(t, err)
	assert.Contains(t, out, "Samples: 1\nTop-K: 3\nHit@K (Recall@K): 1.0000\n")
	assert.Equal(t, 3, cfg.Retrieval.FinalK)
	assert.Equal(t, minEvalCandidates, cfg.Retrieval.CandidateSize)

	out, err = run(t, cfg, nil, "-o", "json", "eval", "--file", path)
	require.NoError(t, err)
	var rep struct {
		Samples int     `json:"samples"`
		HitAtK  float64 `json:"hit_at_k"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 1, rep.Samples)
	assert.Equal(t, 1.0, rep.HitAtK)
}

func TestEvalCmd_Validation(t *testing.T) {
	cfg := testConfig(t)
	_, err := run(t, cfg, nil, "eval")
	assert.Error(t, err, "--file is required")

	_, err = run(t, cfg, nil, "eval", "--file", "x.xlsx", "--k", "0")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = run(t, cfg, nil, "eval", "--file", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDocumentUnreadable))
}

// ─── chat ──────────────────────────────────────────────────────────────────

func TestChatCmd(t *testing.T) {
	cfg := testConfig(t)
	gen := scriptedGenerator()

	out, err := run(t, cfg, gen, "chat", "--system", "你是审查助手", "你好")
	require.NoError(t, err)
	assert.Equal(t, "你好，有什么可以帮您？\n", out)
	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, llm.RoleSystem, calls[0][0].Role)
}

func TestChatCmd_Stream(t *testing.T) {
	streaming := &llm.MockGenerator{StreamFunc: func(context.Context, []llm.Message) (<-chan llm.StreamChunk, error) {
		ch := make(chan llm.StreamChunk, 3)
		ch <- llm.StreamChunk{Content: "不得"}
		ch <- llm.StreamChunk{Content: "限定"}
		ch <- llm.StreamChunk{Content: "经营"}
		close(ch)
		return ch, nil
	}}
	out, err := run(t, testConfig(t), streaming, "chat", "--stream", "问题")
	require.NoError(t, err)
	assert.Equal(t, "不得限定经营\n", out)
}

func TestWriteStream_Error(t *testing.T) {
	ch := make(chan llm.StreamChunk, 2)
	ch <- llm.StreamChunk{Content: "部分"}
	ch <- llm.StreamChunk{Err: errors.New("stream reset")}
	close(ch)

	var buf bytes.Buffer
	err := writeStream(&buf, ch)
	assert.EqualError(t, err, "stream reset")
	assert.Equal(t, "部分\n", buf.String())
}

func TestChatCmd_StdinPrompt(t *testing.T) {
	gen := scriptedGenerator()
	root := NewRootCommand(
		WithConfig(testConfig(t)),
		WithLogger(logging.NewNopLogger()),
		WithPipelineOptions(pipeline.WithGenerator(gen)),
	)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("你好"))
	root.SetArgs([]string{"chat", "-"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "你好，有什么可以帮您？\n", out.String())

	_, err := run(t, testConfig(t), gen, "chat", " ")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

//Personal.AI order the ending
