// Package intent rewrites free-form review queries into the vocabulary of
// the fair-competition review standard before retrieval.
package intent

import (
	"context"
	"strings"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/llm"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

const (
	// MaxKeywords caps IntentResult.Keywords.
	MaxKeywords = 5
	// MaxChapterHints caps IntentResult.ChapterHints.
	MaxChapterHints = 3
)

// Normalizer maps a query to an IntentResult. It never fails: upstream
// problems collapse to review.FallbackIntent.
type Normalizer interface {
	Normalize(ctx context.Context, query string) review.IntentResult
}

// Translator exposes whether a normalization came from the model or from
// the fallback path.
type Translator interface {
	Translate(ctx context.Context, query string) llm.JSONResult[review.IntentResult]
}

// LLMNormalizer asks a text generator for the normalized form.
type LLMNormalizer struct {
	gen     llm.Generator
	logger  logging.Logger
	metrics *prometheus.ReviewMetrics
}

var (
	_ Normalizer = (*LLMNormalizer)(nil)
	_ Translator = (*LLMNormalizer)(nil)
)

func NewLLMNormalizer(gen llm.Generator, logger logging.Logger, metrics *prometheus.ReviewMetrics) *LLMNormalizer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &LLMNormalizer{gen: gen, logger: logger.Named("intent"), metrics: metrics}
}

func (n *LLMNormalizer) Normalize(ctx context.Context, query string) review.IntentResult {
	return n.Translate(ctx, query).Value
}

func (n *LLMNormalizer) Translate(ctx context.Context, query string) llm.JSONResult[review.IntentResult] {
	raw, err := n.gen.Generate(ctx, BuildPrompt(query))
	if err != nil {
		n.metrics.RecordJSONFallback("intent")
		n.logger.Error("intent generation failed", logging.Err(err))
		return llm.Fallback(review.FallbackIntent(query), raw, err)
	}

	res := Decode(query, raw)
	if !res.Ok {
		n.metrics.RecordJSONFallback("intent")
		n.logger.Error("intent response is not a JSON object",
			logging.Preview("response", raw, 100), logging.Err(res.Err))
		return res
	}
	n.logger.Info("intent normalized",
		logging.String("normalized_query", res.Value.NormalizedQuery),
		logging.Strings("keywords", res.Value.Keywords),
		logging.Strings("chapter_hints", res.Value.ChapterHints))
	return res
}

// Decode resolves a model response field by field. Anything that is not a
// JSON object yields the fallback for query.
func Decode(query, raw string) llm.JSONResult[review.IntentResult] {
	parsed := llm.ParseJSON[map[string]interface{}](raw, nil)
	if !parsed.Ok {
		return llm.Fallback(review.FallbackIntent(query), raw, parsed.Err)
	}
	if parsed.Value == nil {
		return llm.Fallback(review.FallbackIntent(query), raw, errors.New(errors.ErrCodeLLMInvalidJSON, "intent: response is null"))
	}

	obj := parsed.Value
	out := review.IntentResult{
		NormalizedQuery: query,
		Keywords:        stringList(obj["keywords"], MaxKeywords),
		ChapterHints:    stringList(obj["chapter_hints"], MaxChapterHints),
	}
	if s, ok := obj["normalized_query"].(string); ok && strings.TrimSpace(s) != "" {
		out.NormalizedQuery = strings.TrimSpace(s)
	}
	return llm.Ok(out, raw)
}

// stringList keeps the string entries of v, up to limit. Non-list values
// give an empty list.
func stringList(v interface{}, limit int) []string {
	out := []string{}
	items, ok := v.([]interface{})
	if !ok {
		return out
	}
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// HintsFrom derives retriever hints. Chapter hints only become a chapter
// filter when chapterFilter is set.
func HintsFrom(r review.IntentResult, chapterFilter bool) review.RetrievalHints {
	h := review.RetrievalHints{Keywords: r.Keywords}
	if chapterFilter && len(r.ChapterHints) > 0 {
		h.TargetChapters = r.ChapterHints
		h.NeedChapterFilter = true
	}
	return h
}

// Func adapts a function to Normalizer.
type Func func(ctx context.Context, query string) review.IntentResult

func (f Func) Normalize(ctx context.Context, query string) review.IntentResult { return f(ctx, query) }

//Personal.AI order the ending
