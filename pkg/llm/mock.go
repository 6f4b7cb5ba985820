package llm

import (
	"context"
	"sync"
)

// MockProvider answers through a caller-supplied function and records every call.
type MockProvider struct {
	Reply func(history []Message, opts Options) (string, error)

	mu    sync.Mutex
	calls [][]Message
}

var _ LLMProvider = (*MockProvider)(nil)

func NewMockProvider(reply func(history []Message, opts Options) (string, error)) *MockProvider {
	return &MockProvider{Reply: reply}
}

// StaticMock always answers text.
func StaticMock(text string) *MockProvider {
	return NewMockProvider(func([]Message, Options) (string, error) { return text, nil })
}

func (m *MockProvider) Chat(ctx context.Context, history []Message, options ...Option) (*Completion, error) {
	m.mu.Lock()
	m.calls = append(m.calls, history)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := Apply(Options{Model: "mock"}, options...)
	text, err := m.Reply(history, opts)
	if err != nil {
		return nil, err
	}
	return &Completion{Text: text, Model: opts.Model}, nil
}

func (m *MockProvider) Generate(ctx context.Context, prompt string, options ...Option) (*Completion, error) {
	return m.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

func (m *MockProvider) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Message, len(m.calls))
	copy(out, m.calls)
	return out
}
