package llm

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// OpenAIConfig configures an OpenAI-compatible chat endpoint. Volcano Ark is
// served through this client with its own BaseURL.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// OpenAIClient implements Generator over the chat completions API.
type OpenAIClient struct {
	client  *openai.Client
	cfg     OpenAIConfig
	logger  logging.Logger
	metrics *prometheus.ReviewMetrics
}

var _ Generator = (*OpenAIClient)(nil)

func NewOpenAIClient(cfg OpenAIConfig, logger logging.Logger, metrics *prometheus.ReviewMetrics) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeValidation, "llm: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New(errors.ErrCodeValidation, "llm: model is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(oc),
		cfg:     cfg,
		logger:  logger.Named("llm"),
		metrics: metrics,
	}, nil
}

func (c *OpenAIClient) Model() string { return c.cfg.Model }

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []Message{User(prompt)})
}

func (c *OpenAIClient) request(messages []Message, stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      stream,
	}
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, c.request(messages, false))
	if err != nil {
		c.metrics.RecordLLMCall(c.cfg.Model, "chat", false, time.Since(start), 0, 0)
		c.logger.Error("chat completion failed", logging.String("model", c.cfg.Model), logging.Err(err))
		return "", errors.Wrap(err, errors.ErrCodeLLMRequestFailed, "llm: chat completion failed")
	}
	c.metrics.RecordLLMCall(c.cfg.Model, "chat", true, time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", errors.New(errors.ErrCodeLLMEmptyResponse, "llm: response has no choices")
	}
	content := resp.Choices[0].Message.Content
	c.logger.Debug("chat completion", logging.Preview("response", content, 100))
	return content, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, messages []Message) (<-chan StreamChunk, error) {
	start := time.Now()
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(messages, true))
	if err != nil {
		c.metrics.RecordLLMCall(c.cfg.Model, "stream", false, time.Since(start), 0, 0)
		return nil, errors.Wrap(err, errors.ErrCodeLLMRequestFailed, "llm: stream request failed")
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if stderrors.Is(err, io.EOF) {
				c.metrics.RecordLLMCall(c.cfg.Model, "stream", true, time.Since(start), 0, 0)
				return
			}
			if err != nil {
				c.metrics.RecordLLMCall(c.cfg.Model, "stream", false, time.Since(start), 0, 0)
				send(ctx, out, StreamChunk{Err: errors.Wrap(err, errors.ErrCodeStreamInterrupted, "llm: stream interrupted")})
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			if !send(ctx, out, StreamChunk{Content: resp.Choices[0].Delta.Content}) {
				return
			}
		}
	}()
	return out, nil
}

// send delivers chunk unless ctx is done first.
func send(ctx context.Context, out chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

//Personal.AI order the ending
