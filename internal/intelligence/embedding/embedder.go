// Package embedding turns chunk and query text into dense vectors.
package embedding

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Func adapts a function to Embedder.
type Func func(ctx context.Context, texts []string) ([][]float32, error)

func (f Func) Embed(ctx context.Context, texts []string) ([][]float32, error) { return f(ctx, texts) }

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint in batches.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	batchSize int
	logger    logging.Logger
	metrics   *prometheus.ReviewMetrics
}

// NewOpenAIEmbedder builds an embedder from the embedding section. The API
// key and base URL fall back to the llm section when unset.
func NewOpenAIEmbedder(cfg config.EmbeddingConfig, llmCfg config.LLMConfig, logger logging.Logger, metrics *prometheus.ReviewMetrics) (*OpenAIEmbedder, error) {
	key := cfg.APIKey
	if key == "" {
		key = llmCfg.APIKey
	}
	if key == "" {
		return nil, errors.New(errors.ErrCodeValidation, "embedding: api key is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = llmCfg.BaseURL
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	oc := openai.DefaultConfig(key)
	if base != "" {
		oc.BaseURL = strings.TrimRight(base, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = config.DefaultEmbeddingBatchSize
	}
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		batchSize: batch,
		logger:    logger.Named("embedding"),
		metrics:   metrics,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	began := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		e.metrics.RecordLLMCall(e.model, "embed", false, time.Since(began), 0, 0)
		return nil, errors.Wrap(err, errors.ErrCodeEmbeddingFailed, "embedding: request failed")
	}
	e.metrics.RecordLLMCall(e.model, "embed", true, time.Since(began), resp.Usage.PromptTokens, 0)

	if len(resp.Data) != len(texts) {
		return nil, errors.New(errors.ErrCodeEmbeddingFailed, "embedding: response size mismatch")
	}
	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, errors.New(errors.ErrCodeEmbeddingFailed, "embedding: response index out of range")
		}
		vecs[d.Index] = d.Embedding
	}
	e.logger.Debug("embedded batch", logging.Int("texts", len(texts)))
	return vecs, nil
}

// Normalize scales v to unit L2 length in place. Zero vectors are left as is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

//Personal.AI order the ending
