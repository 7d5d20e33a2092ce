// Package hybrid fuses the semantic and lexical channels into one ranked
// list of chunks.
package hybrid

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/bm25"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// Channel names used in logs and metrics.
const (
	ChannelVector  = "vector"
	ChannelLexical = "lexical"
)

// VectorSearcher returns the k nearest chunks with their distances.
type VectorSearcher interface {
	SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]review.ScoredChunk, error)
}

// Options tunes one retrieval call.
type Options struct {
	CandidateSize int
	FinalK        int
	VectorWeight  float64
	BM25Weight    float64
}

// DefaultOptions returns 20 candidates per channel, 10 results and equal
// weights.
func DefaultOptions() Options {
	return Options{CandidateSize: 20, FinalK: 10, VectorWeight: 0.5, BM25Weight: 0.5}
}

// OptionsFromConfig maps the retrieval configuration section.
func OptionsFromConfig(cfg config.RetrievalConfig) Options {
	return Options{
		CandidateSize: cfg.CandidateSize,
		FinalK:        cfg.FinalK,
		VectorWeight:  cfg.VectorWeight,
		BM25Weight:    cfg.BM25Weight,
	}
}

// Retriever combines a vector store and a lexical retriever. It holds no
// mutable state and is safe for concurrent use.
type Retriever struct {
	vector  VectorSearcher
	lexical bm25.LexicalRetriever
	logger  logging.Logger
	metrics *prometheus.ReviewMetrics
}

func NewRetriever(vector VectorSearcher, lexical bm25.LexicalRetriever, logger logging.Logger, metrics *prometheus.ReviewMetrics) *Retriever {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Retriever{vector: vector, lexical: lexical, logger: logger.Named("hybrid"), metrics: metrics}
}

// Retrieve runs both channels and returns at most opts.FinalK chunks ranked
// by the weighted sum of max-normalized channel scores. A failing channel is
// logged and skipped. When both fail, or neither finds anything, the result
// is empty. Retrieve never returns an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, hints review.RetrievalHints, opts Options) []review.ScoredChunk {
	start := time.Now()

	var vectorHits, lexicalHits []review.ScoredChunk
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vectorHits = r.vectorChannel(gctx, query, opts.CandidateSize)
		return nil
	})
	g.Go(func() error {
		lexicalHits = r.lexicalChannel(gctx, query, hints, opts.CandidateSize)
		return nil
	})
	_ = g.Wait()

	candidates := Merge(vectorHits, lexicalHits)
	if len(candidates) == 0 {
		r.logger.Warn("hybrid retrieval found no candidate", logging.Preview("query", query, 50))
		r.metrics.RecordRetrieval(time.Since(start), 0)
		return []review.ScoredChunk{}
	}

	out := Fuse(candidates, opts)
	r.metrics.RecordRetrieval(time.Since(start), len(out))
	r.logger.Info("hybrid retrieval done",
		logging.Int("vector_hits", len(vectorHits)),
		logging.Int("lexical_hits", len(lexicalHits)),
		logging.Int("returned", len(out)))
	return out
}

// vectorChannel returns similarities 1/(1+d) for the nearest chunks.
func (r *Retriever) vectorChannel(ctx context.Context, query string, k int) []review.ScoredChunk {
	if r.vector == nil {
		return nil
	}
	hits, err := r.vector.SimilaritySearchWithScore(ctx, query, k)
	if err != nil {
		r.metrics.RecordRetrievalChannelError(ChannelVector)
		r.logger.Error("vector retrieval failed", logging.Err(err))
		return nil
	}
	out := make([]review.ScoredChunk, len(hits))
	for i, h := range hits {
		out[i] = review.ScoredChunk{Score: 1.0 / (1.0 + h.Score), Chunk: h.Chunk}
	}
	r.logger.Debug("vector candidates", logging.Int("count", len(out)))
	return out
}

func (r *Retriever) lexicalChannel(ctx context.Context, query string, hints review.RetrievalHints, k int) []review.ScoredChunk {
	if r.lexical == nil {
		return nil
	}
	q := LexicalQuery(query, hints.Keywords)

	var (
		hits []review.ScoredChunk
		err  error
	)
	if hints.NeedChapterFilter && len(hints.TargetChapters) > 0 {
		hits, err = r.lexical.RetrieveWithChapterFilter(ctx, q, hints.TargetChapters, k)
	} else {
		hits, err = r.lexical.Retrieve(ctx, q, k)
	}
	if err != nil {
		r.metrics.RecordRetrievalChannelError(ChannelLexical)
		r.logger.Error("lexical retrieval failed", logging.Err(err))
		return nil
	}
	r.logger.Debug("lexical candidates", logging.String("query", q), logging.Int("count", len(hits)))
	return hits
}

// LexicalQuery is the space-joined non-blank keywords, or query when there
// are none.
func LexicalQuery(query string, keywords []string) string {
	kept := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if strings.TrimSpace(k) != "" {
			kept = append(kept, k)
		}
	}
	if len(kept) == 0 {
		return query
	}
	return strings.Join(kept, " ")
}

// Merge keys both channels by content fingerprint. Vector candidates come
// first; a duplicate vector content keeps its first score. A lexical hit
// sets the BM25 score of an existing candidate, and becomes a new candidate
// only with a positive score.
func Merge(vectorHits, lexicalHits []review.ScoredChunk) []review.RetrievalCandidate {
	index := make(map[uint64]int, len(vectorHits)+len(lexicalHits))
	out := make([]review.RetrievalCandidate, 0, len(vectorHits)+len(lexicalHits))

	for _, h := range vectorHits {
		key := review.Fingerprint(h.Chunk.Content)
		if _, ok := index[key]; ok {
			continue
		}
		index[key] = len(out)
		out = append(out, review.RetrievalCandidate{Key: key, Chunk: h.Chunk, VectorScore: h.Score})
	}
	for _, h := range lexicalHits {
		key := review.Fingerprint(h.Chunk.Content)
		if i, ok := index[key]; ok {
			out[i].BM25Score = h.Score
			continue
		}
		if h.Score > 0 {
			index[key] = len(out)
			out = append(out, review.RetrievalCandidate{Key: key, Chunk: h.Chunk, BM25Score: h.Score})
		}
	}
	return out
}

// Fuse normalizes each channel by its maximum and ranks the weighted sum,
// best first. Equal scores keep candidate order.
func Fuse(candidates []review.RetrievalCandidate, opts Options) []review.ScoredChunk {
	var maxVector, maxBM25 float64
	for _, c := range candidates {
		if c.VectorScore > maxVector {
			maxVector = c.VectorScore
		}
		if c.BM25Score > maxBM25 {
			maxBM25 = c.BM25Score
		}
	}

	out := make([]review.ScoredChunk, len(candidates))
	for i, c := range candidates {
		var nv, nb float64
		if maxVector != 0 {
			nv = c.VectorScore / maxVector
		}
		if maxBM25 != 0 {
			nb = c.BM25Score / maxBM25
		}
		out[i] = review.ScoredChunk{Score: nv*opts.VectorWeight + nb*opts.BM25Weight, Chunk: c.Chunk}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if opts.FinalK >= 0 && len(out) > opts.FinalK {
		out = out[:opts.FinalK]
	}
	return out
}

//Personal.AI order the ending
