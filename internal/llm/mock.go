package llm

import (
	"context"
	"sync"
)

// MockCall records one Generate invocation.
type MockCall struct {
	System string
	User   string
}

// MockProvider is a deterministic Provider for tests and offline demos. It
// returns Text, or Err when set, and records every call.
type MockProvider struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls []MockCall
}

// NewMockProvider returns a MockProvider answering with text.
func NewMockProvider(text string) *MockProvider {
	return &MockProvider{Text: text}
}

// NewFailingMockProvider returns a MockProvider that always fails with err.
func NewFailingMockProvider(err error) *MockProvider {
	return &MockProvider{Err: err}
}

func (m *MockProvider) Name() string { return ProviderMock }

func (m *MockProvider) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{System: systemPrompt, User: userPrompt})
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockProvider) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}
