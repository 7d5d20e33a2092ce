package vectorindex

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/embedding"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// keywordEmbedder maps text onto three axes by keyword presence.
type keywordEmbedder struct {
	calls int32
}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&e.calls, 1)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := []float32{0.01, 0.01, 0.01}
		if strings.Contains(t, "招标") {
			v[0] = 1
		}
		if strings.Contains(t, "补贴") {
			v[1] = 1
		}
		if strings.Contains(t, "准入") {
			v[2] = 1
		}
		out[i] = v
	}
	return out, nil
}

func chunks() []review.Chunk {
	return []review.Chunk{
		{Content: "限定投标人所在地参与招标", Metadata: review.ChunkMetadata{ParentChapterTitle: "招标投标"}},
		{Content: "对本地企业给予财政补贴", Metadata: review.ChunkMetadata{ParentChapterTitle: "财政补贴"}},
		{Content: "   "},
		{Content: "设置不合理的市场准入条件", Metadata: review.ChunkMetadata{ParentChapterTitle: "市场准入"}},
	}
}

func TestOpen_BuildsThenLoads(t *testing.T) {
	dir := t.TempDir()
	emb := &keywordEmbedder{}
	store := NewFlatStore(dir, emb, nil)

	require.NoError(t, Open(context.Background(), store, chunks(), false, nil))
	assert.FileExists(t, filepath.Join(dir, FlatFileName))
	assert.Equal(t, int32(1), atomic.LoadInt32(&emb.calls))

	emb2 := &keywordEmbedder{}
	reopened := NewFlatStore(dir, emb2, nil)
	require.NoError(t, Open(context.Background(), reopened, chunks(), false, nil))
	assert.Zero(t, atomic.LoadInt32(&emb2.calls), "load must not re-embed the corpus")

	results, err := reopened.SimilaritySearchWithScore(context.Background(), "招标 条件", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "限定投标人所在地参与招标", results[0].Chunk.Content)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Score, results[i].Score)
	}
	assert.InDelta(t, 0, results[0].Score, 1e-6)
}

func TestOpen_ForceRecreate(t *testing.T) {
	dir := t.TempDir()
	emb := &keywordEmbedder{}
	store := NewFlatStore(dir, emb, nil)
	require.NoError(t, Open(context.Background(), store, chunks(), false, nil))
	require.NoError(t, Open(context.Background(), store, chunks()[:1], true, nil))
	assert.Equal(t, int32(2), atomic.LoadInt32(&emb.calls))

	results, err := store.SimilaritySearchWithScore(context.Background(), "补贴", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestOpen_EmptyCorpus(t *testing.T) {
	store := NewFlatStore(t.TempDir(), &keywordEmbedder{}, nil)
	err := Open(context.Background(), store, []review.Chunk{{Content: " "}}, true, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyCorpus))
}

func TestOpen_CorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FlatFileName), []byte("{"), 0o644))
	err := Open(context.Background(), NewFlatStore(dir, &keywordEmbedder{}, nil), chunks(), false, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexLoadFailed))
}

func TestSearch_NotReady(t *testing.T) {
	store := NewFlatStore(t.TempDir(), &keywordEmbedder{}, nil)
	_, err := store.SimilaritySearchWithScore(context.Background(), "x", 1)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexNotReady))
}

func TestBuild_DimensionMismatch(t *testing.T) {
	bad := embedding.Func(func(_ context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}, {1, 0, 0}}, nil
	})
	store := NewFlatStore(t.TempDir(), bad, nil)
	err := store.Build(context.Background(), NonEmpty(chunks())[:2])
	assert.True(t, errors.IsCode(err, errors.ErrCodeDimensionMismatch))
}

func TestSquaredL2(t *testing.T) {
	assert.Equal(t, 25.0, squaredL2([]float32{0, 0}, []float32{3, 4}))
}

//Personal.AI order the ending
