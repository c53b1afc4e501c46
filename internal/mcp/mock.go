package mcp

import (
	"context"
	"encoding/json"
	"sync"
)

// Call records one mock invocation.
type Call struct {
	Name string
	Args map[string]any
}

// MockCaller is a deterministic Caller for tests.
type MockCaller struct {
	mu        sync.Mutex
	Responses map[string]Envelope
	Errs      map[string]error
	Calls     []Call
}

// NewMockCaller returns an empty mock; unknown tools yield an empty JSON array.
func NewMockCaller() *MockCaller {
	return &MockCaller{Responses: map[string]Envelope{}, Errs: map[string]error{}}
}

func (m *MockCaller) CallTool(ctx context.Context, name string, args map[string]any) (Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Name: name, Args: args})
	if err, ok := m.Errs[name]; ok {
		return Envelope{}, err
	}
	if env, ok := m.Responses[name]; ok {
		return env, nil
	}
	return TextEnvelope([]any{}), nil
}

// CallsTo returns the recorded calls for one tool name.
func (m *MockCaller) CallsTo(name string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, call := range m.Calls {
		if call.Name == name {
			out = append(out, call)
		}
	}
	return out
}

// TextEnvelope wraps a value as a single JSON text block, mirroring how the
// upstream service serializes structured payloads.
func TextEnvelope(payload any) Envelope {
	data, _ := json.Marshal(payload)
	return Envelope{Content: []ContentBlock{{Type: "text", Text: string(data)}}}
}
