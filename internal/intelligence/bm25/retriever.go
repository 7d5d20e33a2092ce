package bm25

import (
	"context"
	"sort"
	"strings"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/tokenizer"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// BackendName labels metrics emitted by the in-memory index.
const BackendName = "bm25"

// LexicalRetriever is implemented by every lexical backend. Scores are BM25
// relevance: higher is better and only strictly positive scores are returned.
type LexicalRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]review.ScoredChunk, error)
	RetrieveWithChapterFilter(ctx context.Context, query string, targetChapters []string, topK int) ([]review.ScoredChunk, error)
}

// Options configures the in-memory retriever.
type Options struct {
	Content          Params
	Chapter          Params
	ChapterThreshold float64
}

// DefaultOptions returns the standard content and chapter parameters with a
// chapter threshold of 0.7.
func DefaultOptions() Options {
	return Options{Content: DefaultParams(), Chapter: ChapterParams(), ChapterThreshold: 0.7}
}

// OptionsFromConfig maps the bm25 configuration section.
func OptionsFromConfig(cfg config.BM25Config) Options {
	return Options{
		Content:          Params{K1: cfg.K1, B: cfg.B, Epsilon: cfg.Epsilon},
		Chapter:          Params{K1: cfg.ChapterK1, B: cfg.ChapterB, Epsilon: cfg.Epsilon},
		ChapterThreshold: cfg.ChapterThreshold,
	}
}

// Retriever is the in-memory BM25 backend. It is read-only after
// construction and safe for concurrent use.
type Retriever struct {
	chunks  []review.Chunk
	tok     tokenizer.Tokenizer
	opts    Options
	content *Okapi
	chapter *Okapi
	logger  logging.Logger
	metrics *prometheus.ReviewMetrics
}

var _ LexicalRetriever = (*Retriever)(nil)

// NewRetriever indexes every chunk whose content is non-empty after trimming.
// The chapter-title index holds one entry per indexed chunk so positions in
// both indexes refer to the same chunk.
func NewRetriever(chunks []review.Chunk, tok tokenizer.Tokenizer, opts Options, logger logging.Logger, metrics *prometheus.ReviewMetrics) (*Retriever, error) {
	if tok == nil {
		return nil, errors.New(errors.ErrCodeValidation, "bm25: tokenizer is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	kept := make([]review.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyCorpus, "bm25: no chunk with non-empty content to index")
	}

	contentCorpus := make([][]string, len(kept))
	chapterCorpus := make([][]string, len(kept))
	for i, c := range kept {
		contentCorpus[i] = tok.Tokenize(c.Content)
		chapterCorpus[i] = tok.Tokenize(c.Metadata.ParentChapterTitle)
	}

	r := &Retriever{
		chunks:  kept,
		tok:     tok,
		opts:    opts,
		content: NewOkapi(contentCorpus, opts.Content),
		chapter: NewOkapi(chapterCorpus, opts.Chapter),
		logger:  logger.Named("bm25"),
		metrics: metrics,
	}
	r.logger.Info("bm25 index built", logging.Int("chunks", len(kept)), logging.Int("skipped", len(chunks)-len(kept)))
	return r, nil
}

// Len is the number of indexed chunks.
func (r *Retriever) Len() int { return len(r.chunks) }

// Retrieve scores query against the whole corpus and returns at most topK
// positively scored chunks, best first. Ties keep corpus order.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]review.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLexicalFailed, "bm25: retrieval cancelled")
	}
	scores := r.content.Scores(r.tok.Tokenize(query))
	return rank(r.chunks, scores, topK), nil
}

// RetrieveWithChapterFilter restricts scoring to chunks whose chapter title
// scores above the chapter threshold for the joined targets. When no title
// qualifies it falls back to Retrieve over the whole corpus, and records the
// fallback.
func (r *Retriever) RetrieveWithChapterFilter(ctx context.Context, query string, targetChapters []string, topK int) ([]review.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLexicalFailed, "bm25: retrieval cancelled")
	}

	chapterScores := r.chapter.Scores(r.tok.Tokenize(strings.Join(targetChapters, " ")))
	var filtered []review.Chunk
	for i, s := range chapterScores {
		if s > r.opts.ChapterThreshold {
			filtered = append(filtered, r.chunks[i])
		}
	}

	if len(filtered) == 0 {
		r.metrics.RecordChapterFilterFallback(BackendName)
		r.logger.Warn("no chapter matched the filter, falling back to unfiltered retrieval",
			logging.Strings("target_chapters", targetChapters))
		return r.Retrieve(ctx, query, topK)
	}

	corpus := make([][]string, len(filtered))
	for i, c := range filtered {
		corpus[i] = r.tok.Tokenize(c.Content)
	}
	scores := NewOkapi(corpus, r.opts.Content).Scores(r.tok.Tokenize(query))
	return rank(filtered, scores, topK), nil
}

func rank(chunks []review.Chunk, scores []float64, topK int) []review.ScoredChunk {
	out := make([]review.ScoredChunk, 0)
	for i, s := range scores {
		if s > 0 {
			out = append(out, review.ScoredChunk{Score: s, Chunk: chunks[i]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topK >= 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

//Personal.AI order the ending
