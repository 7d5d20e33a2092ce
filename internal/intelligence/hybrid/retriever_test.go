package hybrid

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/intent"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/llm"
	"github.com/turtacn/FairReview-Intelligence/internal/testutil"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

type stubVector struct {
	hits []review.ScoredChunk
	err  error
}

func (s *stubVector) SimilaritySearchWithScore(_ context.Context, _ string, k int) ([]review.ScoredChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > k {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

type lexicalCall struct {
	query    string
	chapters []string
	filtered bool
	topK     int
}

// spyLexical records every call and returns fixed hits.
type spyLexical struct {
	mu    sync.Mutex
	calls []lexicalCall
	hits  []review.ScoredChunk
	err   error
}

func (s *spyLexical) record(c lexicalCall) ([]review.ScoredChunk, error) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
	return s.hits, s.err
}

func (s *spyLexical) Retrieve(_ context.Context, query string, topK int) ([]review.ScoredChunk, error) {
	return s.record(lexicalCall{query: query, topK: topK})
}

func (s *spyLexical) RetrieveWithChapterFilter(_ context.Context, query string, chapters []string, topK int) ([]review.ScoredChunk, error) {
	return s.record(lexicalCall{query: query, chapters: chapters, filtered: true, topK: topK})
}

func chunk(content string) review.Chunk {
	return review.Chunk{Content: content, Metadata: review.ChunkMetadata{ParentChapterTitle: "第三章"}}
}

func scored(score float64, content string) review.ScoredChunk {
	return review.ScoredChunk{Score: score, Chunk: chunk(content)}
}

func contents(res []review.ScoredChunk) []string {
	out := make([]string, len(res))
	for i, r := range res {
		out[i] = r.Chunk.Content
	}
	return out
}

func TestRetrieve_FusesBothChannels(t *testing.T) {
	vector := &stubVector{hits: []review.ScoredChunk{
		scored(0, "A"), // similarity 1
		scored(1, "B"), // similarity 0.5
	}}
	lexical := &spyLexical{hits: []review.ScoredChunk{
		scored(4, "B"),
		scored(2, "C"),
		scored(0, "D"),
	}}
	r := NewRetriever(vector, lexical, nil, nil)

	got := r.Retrieve(context.Background(), "q", review.RetrievalHints{}, DefaultOptions())

	// A: 0.5*1 + 0 = 0.5; B: 0.5*0.5 + 0.5*1 = 0.75; C: 0 + 0.5*0.5 = 0.25; D dropped.
	require.Equal(t, []string{"B", "A", "C"}, contents(got))
	assert.InDelta(t, 0.75, got[0].Score, 1e-9)
	assert.InDelta(t, 0.5, got[1].Score, 1e-9)
	assert.InDelta(t, 0.25, got[2].Score, 1e-9)
}

func TestRetrieve_TruncatesToFinalK(t *testing.T) {
	var hits []review.ScoredChunk
	for i := 0; i < 30; i++ {
		hits = append(hits, scored(float64(i), string(rune('a'+i))))
	}
	r := NewRetriever(&stubVector{hits: hits}, &spyLexical{}, nil, nil)

	got := r.Retrieve(context.Background(), "q", review.RetrievalHints{}, Options{CandidateSize: 20, FinalK: 5, VectorWeight: 0.5, BM25Weight: 0.5})
	assert.Len(t, got, 5)
	assert.Equal(t, "a", got[0].Chunk.Content)
}

func TestRetrieve_LexicalQueryUsesIntentKeywords(t *testing.T) {
	gen := &llm.MockGenerator{ChatFunc: func(context.Context, []llm.Message) (string, error) {
		return `{"normalized_query":"X","keywords":["本地落户"],"chapter_hints":["限定特定经营者"]}`, nil
	}}
	query := "参与评优评奖企业需要在本地落户"
	res := intent.NewLLMNormalizer(gen, nil, nil).Normalize(context.Background(), query)

	lexical := &spyLexical{}
	r := NewRetriever(&stubVector{}, lexical, nil, nil)
	r.Retrieve(context.Background(), res.NormalizedQuery, intent.HintsFrom(res, false), DefaultOptions())

	require.Len(t, lexical.calls, 1)
	assert.Equal(t, "本地落户", lexical.calls[0].query)
	assert.False(t, lexical.calls[0].filtered)
	assert.Equal(t, 20, lexical.calls[0].topK)
}

func TestRetrieve_ChapterFilterFromHints(t *testing.T) {
	lexical := &spyLexical{}
	r := NewRetriever(&stubVector{}, lexical, nil, nil)

	hints := review.RetrievalHints{Keywords: []string{" ", "准入"}, TargetChapters: []string{"市场准入"}, NeedChapterFilter: true}
	r.Retrieve(context.Background(), "q", hints, DefaultOptions())

	require.Len(t, lexical.calls, 1)
	assert.True(t, lexical.calls[0].filtered)
	assert.Equal(t, []string{"市场准入"}, lexical.calls[0].chapters)
	assert.Equal(t, "准入", lexical.calls[0].query)

	hints.TargetChapters = nil
	r.Retrieve(context.Background(), "q", hints, DefaultOptions())
	assert.False(t, lexical.calls[1].filtered)
}

func TestRetrieve_ChannelFailureIsIsolated(t *testing.T) {
	metrics, collector := testutil.NewTestMetrics(t)
	logger := testutil.NewMockLogger()
	vector := &stubVector{err: errors.New("embedding service unreachable")}
	lexical := &spyLexical{hits: []review.ScoredChunk{scored(3, "C"), scored(1, "D")}}
	r := NewRetriever(vector, lexical, logger, metrics)

	got := r.Retrieve(context.Background(), "q", review.RetrievalHints{}, DefaultOptions())

	assert.Equal(t, []string{"C", "D"}, contents(got))
	assert.InDelta(t, 0.5, got[0].Score, 1e-9)
	assert.True(t, logger.HasMessageContaining("error", "vector retrieval failed"))
	assert.Contains(t, testutil.ScrapeMetrics(t, collector), `test_retrieval_channel_errors_total{channel="vector"} 1`)
}

func TestRetrieve_BothChannelsFail(t *testing.T) {
	logger := testutil.NewMockLogger()
	r := NewRetriever(&stubVector{err: errors.New("down")}, &spyLexical{err: errors.New("down")}, logger, nil)

	got := r.Retrieve(context.Background(), "q", review.RetrievalHints{}, DefaultOptions())
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.True(t, logger.HasMessageContaining("warn", "no candidate"))
}

func TestMerge_DuplicateVectorContentKeepsFirst(t *testing.T) {
	got := Merge([]review.ScoredChunk{scored(0.9, "A"), scored(0.1, "A")}, []review.ScoredChunk{scored(2, "A")})
	require.Len(t, got, 1)
	assert.Equal(t, 0.9, got[0].VectorScore)
	assert.Equal(t, 2.0, got[0].BM25Score)
	assert.Equal(t, review.Fingerprint("A"), got[0].Key)
}

func TestFuse_ScoresWithinWeightBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	weights := []Options{
		DefaultOptions(),
		{FinalK: 100, VectorWeight: 0.7, BM25Weight: 0.3},
		{FinalK: 100, VectorWeight: 2, BM25Weight: 1},
		{FinalK: 100, VectorWeight: 0, BM25Weight: 1},
	}
	for round := 0; round < 200; round++ {
		n := rng.Intn(15)
		var vec, lex []review.ScoredChunk
		for i := 0; i < n; i++ {
			content := string(rune('a' + rng.Intn(20)))
			if rng.Intn(2) == 0 {
				vec = append(vec, scored(1/(1+rng.Float64()*3), content))
			} else {
				lex = append(lex, scored(rng.Float64()*10, content))
			}
		}
		cands := Merge(vec, lex)
		for _, opts := range weights {
			for _, s := range Fuse(cands, opts) {
				assert.GreaterOrEqual(t, s.Score, 0.0)
				assert.LessOrEqual(t, s.Score, opts.VectorWeight+opts.BM25Weight+1e-12)
			}
		}
	}
}

func TestLexicalQuery(t *testing.T) {
	assert.Equal(t, "raw", LexicalQuery("raw", nil))
	assert.Equal(t, "raw", LexicalQuery("raw", []string{"", "  "}))
	assert.Equal(t, "本地落户 准入条件", LexicalQuery("raw", []string{"本地落户", "", "准入条件"}))
}

//Personal.AI order the ending
