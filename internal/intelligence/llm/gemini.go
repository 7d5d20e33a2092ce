package llm

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// GeminiClient implements Generator over the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	cfg     GeminiConfig
	logger  logging.Logger
	metrics *prometheus.ReviewMetrics
}

var _ Generator = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger logging.Logger, metrics *prometheus.ReviewMetrics) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeValidation, "llm: gemini api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New(errors.ErrCodeValidation, "llm: model is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMUnavailable, "llm: failed to create gemini client")
	}
	return &GeminiClient{client: client, cfg: cfg, logger: logger.Named("llm"), metrics: metrics}, nil
}

func (c *GeminiClient) Model() string { return c.cfg.Model }

// Close releases the underlying connection.
func (c *GeminiClient) Close() error { return c.client.Close() }

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []Message{User(prompt)})
}

// session builds a per-call model so system instructions never leak between
// concurrent calls.
func (c *GeminiClient) session(messages []Message) (*genai.ChatSession, []genai.Part) {
	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(c.cfg.Temperature)
	if c.cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.cfg.MaxTokens))
	}
	system, history, last := splitConversation(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	cs := model.StartChat()
	cs.History = history
	return cs, []genai.Part{genai.Text(last)}
}

func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	cs, parts := c.session(messages)
	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		c.metrics.RecordLLMCall(c.cfg.Model, "chat", false, time.Since(start), 0, 0)
		c.logger.Error("gemini generation failed", logging.String("model", c.cfg.Model), logging.Err(err))
		return "", errors.Wrap(err, errors.ErrCodeLLMRequestFailed, "llm: gemini generation failed")
	}
	var promptTok, complTok int
	if resp.UsageMetadata != nil {
		promptTok = int(resp.UsageMetadata.PromptTokenCount)
		complTok = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	c.metrics.RecordLLMCall(c.cfg.Model, "chat", true, time.Since(start), promptTok, complTok)

	text := responseText(resp)
	if text == "" {
		return "", errors.New(errors.ErrCodeLLMEmptyResponse, "llm: gemini returned no text")
	}
	return text, nil
}

func (c *GeminiClient) Stream(ctx context.Context, messages []Message) (<-chan StreamChunk, error) {
	start := time.Now()
	cs, parts := c.session(messages)
	iter := cs.SendMessageStream(ctx, parts...)

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				c.metrics.RecordLLMCall(c.cfg.Model, "stream", true, time.Since(start), 0, 0)
				return
			}
			if err != nil {
				c.metrics.RecordLLMCall(c.cfg.Model, "stream", false, time.Since(start), 0, 0)
				send(ctx, out, StreamChunk{Err: errors.Wrap(err, errors.ErrCodeStreamInterrupted, "llm: gemini stream interrupted")})
				return
			}
			if text := responseText(resp); text != "" {
				if !send(ctx, out, StreamChunk{Content: text}) {
					return
				}
			}
		}
	}()
	return out, nil
}

// splitConversation maps chat messages onto Gemini's shape: system turns are
// joined into one instruction, the final user turn is sent and the rest
// becomes history.
func splitConversation(messages []Message) (system string, history []*genai.Content, last string) {
	var sys []string
	var turns []Message
	for _, m := range messages {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	system = strings.Join(sys, "\n\n")
	if len(turns) == 0 {
		return system, nil, ""
	}
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return system, history, turns[len(turns)-1].Content
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

//Personal.AI order the ending
