package completion

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by MockService when no responses remain.
var ErrScriptExhausted = errors.New("mock completion script exhausted")

// MockResponse is one scripted answer.
type MockResponse struct {
	Text string
	Err  error
}

// MockCall records one Complete invocation.
type MockCall struct {
	Prompt     string
	Structured bool
}

// MockService replays scripted responses in order and records every call.
type MockService struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []MockCall
}

// NewMockService creates a MockService that answers with texts in order.
func NewMockService(texts ...string) *MockService {
	m := &MockService{}
	for _, t := range texts {
		m.responses = append(m.responses, MockResponse{Text: t})
	}
	return m
}

// Push appends responses to the script.
func (m *MockService) Push(responses ...MockResponse) *MockService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// Complete returns the next scripted response.
func (m *MockService) Complete(ctx context.Context, prompt string, structured bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Prompt: prompt, Structured: structured})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.responses) == 0 {
		return "", ErrScriptExhausted
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next.Text, next.Err
}

// Calls returns the recorded calls.
func (m *MockService) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Service = (*MockService)(nil)
