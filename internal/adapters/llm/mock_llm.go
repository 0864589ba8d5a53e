package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// MockLLM answers deterministically by purpose. Responses and Err override
// the defaults, which makes it usable as a test double.
type MockLLM struct {
	mu        sync.Mutex
	Responses map[string]string
	Err       error
	calls     []domain.CompletionRequest
}

func NewMockLLM() *MockLLM {
	return &MockLLM{Responses: map[string]string{}}
}

func (m *MockLLM) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if m.Err != nil {
		return "", m.Err
	}
	if out, ok := m.Responses[req.Purpose]; ok {
		return out, nil
	}

	switch req.Purpose {
	case "mood":
		return "6", nil
	case "tasks":
		return `["Take a 10-minute walk", "Drink a glass of water", "Write down one thing that went well today"]`, nil
	default:
		last := ""
		if n := len(req.Messages); n > 0 {
			last = req.Messages[n-1].Content
		}
		return fmt.Sprintf("I hear you. You said %q. How does that make you feel?", last), nil
	}
}

// Calls returns a copy of every request received so far.
func (m *MockLLM) Calls() []domain.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CompletionRequest(nil), m.calls...)
}

// Set overrides the answer for purpose.
func (m *MockLLM) Set(purpose, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[purpose] = response
}
