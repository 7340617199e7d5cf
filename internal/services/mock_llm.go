package services

import (
	"context"
	"sync"

	"github.com/tannerws/mistweaver/pkg/chat"
)

// MockLLMService is a mock implementation of LLMService for testing.
type MockLLMService struct {
	GenerateTurnFunc func(ctx context.Context, messages []chat.Message) (string, error)

	// Track calls for testing
	GenerateTurnCalls [][]chat.Message

	mu sync.Mutex // protects all fields above
}

var _ LLMService = (*MockLLMService)(nil)

func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		GenerateTurnCalls: make([][]chat.Message, 0),
	}
}

func (m *MockLLMService) GenerateTurn(ctx context.Context, messages []chat.Message) (string, error) {
	m.mu.Lock()
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	m.GenerateTurnCalls = append(m.GenerateTurnCalls, copied)
	fn := m.GenerateTurnFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}

	// Default behavior - a minimal well-formed narrative payload
	return `{"narrative":"Mock narrative.","options":["Continue"],"inventory_changes":{},"visual_description":"A mock scene."}`, nil
}

// Calls returns a snapshot of recorded calls.
func (m *MockLLMService) Calls() [][]chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]chat.Message, len(m.GenerateTurnCalls))
	copy(out, m.GenerateTurnCalls)
	return out
}

// Reset clears all call tracking.
func (m *MockLLMService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateTurnCalls = m.GenerateTurnCalls[:0]
}
