package tools

import "context"

// Param describes one declared tool parameter.
type Param struct {
	Kind        string `json:"type"`
	Description string `json:"description"`
	Optional    bool   `json:"optional,omitempty"`
}

// Descriptor is the discoverable shape of a registered tool.
type Descriptor struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Params      map[string]Param `json:"parameters"`
}

// Result is the uniform execution envelope. Exactly one of Data or Error is
// populated.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Tool is a named unit of work over the upstream services.
type Tool interface {
	Name() string
	Description() string
	Params() map[string]Param
	Execute(ctx context.Context, args map[string]any) (any, error)
}
