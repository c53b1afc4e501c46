package llm

import (
	"context"
	"sync"
)

// GenerateCall records one mock invocation.
type GenerateCall struct {
	SystemPrompt string
	UserQuery    string
}

// MockClient is a deterministic client for tests.
type MockClient struct {
	mu         sync.Mutex
	Completion Completion
	Err        error
	Calls      []GenerateCall
	// GenerateFn, when set, overrides the canned completion.
	GenerateFn func(systemPrompt, userQuery string) (Completion, error)
}

// NewMockClient returns a mock with a canned completion.
func NewMockClient() *MockClient {
	return &MockClient{Completion: Completion{
		Content:      "Mock analysis: the repository looks healthy.",
		ModelID:      "mock-model",
		PromptTokens: 10,
		OutputTokens: 5,
		TotalTokens:  15,
	}}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt, userQuery string) (Completion, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, GenerateCall{SystemPrompt: systemPrompt, UserQuery: userQuery})
	fn := m.GenerateFn
	completion, err := m.Completion, m.Err
	m.mu.Unlock()
	if fn != nil {
		return fn(systemPrompt, userQuery)
	}
	return completion, err
}
