package llm

import (
	"context"
	"strings"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// ProbeToken is what a healthy model echoes back to the connection probe.
const ProbeToken = "LLM_OK"

// New builds the Generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, logger logging.Logger, metrics *prometheus.ReviewMetrics) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderArk, config.ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, logger, metrics)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, logger, metrics)
	default:
		return nil, errors.New(errors.ErrCodeProviderUnknown, "llm: unknown provider").WithDetail(cfg.Provider)
	}
}

// Probe asks the model to echo ProbeToken. It reports whether the reply
// contains the token; transport errors are returned as is.
func Probe(ctx context.Context, g Generator) (bool, error) {
	out, err := g.Generate(ctx, "请只回复："+ProbeToken)
	if err != nil {
		return false, err
	}
	return strings.Contains(out, ProbeToken), nil
}

//Personal.AI order the ending
