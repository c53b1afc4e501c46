package tools

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Registry stores available tools in registration order. It is populated once
// at startup and read-only afterwards.
type Registry struct {
	names []string
	tools map[string]Tool
}

// NewRegistry builds a registry from tools, rejecting duplicate names.
func NewRegistry(items ...Tool) (*Registry, error) {
	reg := &Registry{tools: map[string]Tool{}}
	for _, item := range items {
		if err := reg.Register(item); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds a tool. Registering a name twice is an error; overwrites are
// never silent.
func (r *Registry) Register(tool Tool) error {
	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = tool
	r.names = append(r.names, name)
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// List returns descriptors in registration order for discovery.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.names))
	for _, name := range r.names {
		tool := r.tools[name]
		out = append(out, Descriptor{Name: name, Description: tool.Description(), Params: tool.Params()})
	}
	return out
}

// Executor dispatches tool calls and wraps every failure mode into a Result.
type Executor struct {
	registry *Registry
	logger   *zap.Logger
}

// NewExecutor constructs an Executor.
func NewExecutor(registry *Registry, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: registry, logger: logger}
}

// List exposes the registry catalog.
func (e *Executor) List() []Descriptor {
	return e.registry.List()
}

// Execute looks up a tool and runs it. Unknown names, handler errors, and
// panics all come back as failed Results; Execute never raises.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (result Result) {
	tool, ok := e.registry.Get(name)
	if !ok {
		return Result{Error: fmt.Sprintf("Tool '%s' not found", name)}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked", zap.String("tool", name), zap.Any("panic", r))
			result = Result{Error: fmt.Sprintf("Error executing tool '%s': %v", name, r)}
		}
	}()

	start := time.Now()
	data, err := tool.Execute(ctx, args)
	duration := time.Since(start)
	if err != nil {
		e.logger.Warn("tool failed", zap.String("tool", name), zap.Duration("duration", duration), zap.Error(err))
		return Result{Error: fmt.Sprintf("Error executing tool '%s': %v", name, err)}
	}
	e.logger.Debug("tool executed", zap.String("tool", name), zap.Duration("duration", duration))
	return Result{Success: true, Data: data}
}
