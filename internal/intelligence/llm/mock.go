package llm

import (
	"context"
	"sync"
)

// MockGenerator is a Generator driven by function fields. Unset functions
// return empty output. Calls are recorded for assertions.
type MockGenerator struct {
	ChatFunc   func(ctx context.Context, messages []Message) (string, error)
	StreamFunc func(ctx context.Context, messages []Message) (<-chan StreamChunk, error)
	ModelName  string

	mu    sync.Mutex
	calls [][]Message
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return m.Chat(ctx, []Message{User(prompt)})
}

func (m *MockGenerator) Chat(ctx context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, messages)
	m.mu.Unlock()
	if m.ChatFunc == nil {
		return "", nil
	}
	return m.ChatFunc(ctx, messages)
}

func (m *MockGenerator) Stream(ctx context.Context, messages []Message) (<-chan StreamChunk, error) {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, messages)
	}
	out, err := m.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Content: out}
	close(ch)
	return ch, nil
}

func (m *MockGenerator) Model() string {
	if m.ModelName == "" {
		return "mock"
	}
	return m.ModelName
}

// Calls returns the message lists received so far.
func (m *MockGenerator) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Message, len(m.calls))
	copy(out, m.calls)
	return out
}

//Personal.AI order the ending
