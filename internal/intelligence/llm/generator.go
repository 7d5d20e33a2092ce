// Package llm wraps the text-generation providers used by the review
// pipeline behind a single Generator interface.
package llm

import (
	"context"
	"strings"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// StreamChunk is one delta of a streamed completion. A chunk with a non-nil
// Err is always the last one sent.
type StreamChunk struct {
	Content string
	Err     error
}

// Generator produces text completions. Implementations are safe for
// concurrent use.
type Generator interface {
	// Generate sends prompt as a single user turn.
	Generate(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, messages []Message) (string, error)
	// Stream returns a channel that is closed when the completion ends.
	Stream(ctx context.Context, messages []Message) (<-chan StreamChunk, error)
	Model() string
}

// Collect drains a stream into one string. It returns what was received
// before the first error together with that error.
func Collect(ch <-chan StreamChunk) (string, error) {
	var sb strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			return sb.String(), chunk.Err
		}
		sb.WriteString(chunk.Content)
	}
	return sb.String(), nil
}

//Personal.AI order the ending
