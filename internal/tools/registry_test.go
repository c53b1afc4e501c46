package tools

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type stubTool struct {
	name string
	data any
	err  error
	boom bool
}

func (s stubTool) Name() string             { return s.name }
func (s stubTool) Description() string      { return "stub tool" }
func (s stubTool) Params() map[string]Param { return map[string]Param{} }
func (s stubTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	if s.boom {
		panic("stub exploded")
	}
	return s.data, s.err
}

func TestRegistryPreservesRegistrationOrder(t *testing.T) {
	reg, err := NewRegistry(stubTool{name: "charlie"}, stubTool{name: "alpha"}, stubTool{name: "bravo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"charlie", "alpha", "bravo"}
	if !reflect.DeepEqual(reg.Names(), want) {
		t.Fatalf("expected registration order %v, got %v", want, reg.Names())
	}
	descriptors := reg.List()
	for i, descriptor := range descriptors {
		if descriptor.Name != want[i] {
			t.Fatalf("expected descriptor order %v, got %v", want, descriptors)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(stubTool{name: "alpha"}, stubTool{name: "alpha"})
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}
}

func TestExecutorToolNotFound(t *testing.T) {
	reg, _ := NewRegistry(stubTool{name: "alpha"})
	executor := NewExecutor(reg, nil)
	result := executor.Execute(context.Background(), "missing", nil)
	if result.Success {
		t.Fatalf("expected failure for unknown tool")
	}
	if result.Error != "Tool 'missing' not found" {
		t.Fatalf("unexpected error message: %q", result.Error)
	}
}

func TestExecutorWrapsHandlerError(t *testing.T) {
	reg, _ := NewRegistry(stubTool{name: "alpha", err: errors.New("upstream broke")})
	executor := NewExecutor(reg, nil)
	result := executor.Execute(context.Background(), "alpha", nil)
	if result.Success {
		t.Fatalf("expected failure")
	}
	if result.Error != "Error executing tool 'alpha': upstream broke" {
		t.Fatalf("unexpected error message: %q", result.Error)
	}
}

func TestExecutorRecoversPanic(t *testing.T) {
	reg, _ := NewRegistry(stubTool{name: "alpha", boom: true})
	executor := NewExecutor(reg, nil)
	result := executor.Execute(context.Background(), "alpha", nil)
	if result.Success {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(result.Error, "Error executing tool 'alpha'") || !strings.Contains(result.Error, "stub exploded") {
		t.Fatalf("unexpected error message: %q", result.Error)
	}
}

func TestExecutorPassesDataThrough(t *testing.T) {
	payload := map[string]any{"answer": 42}
	reg, _ := NewRegistry(stubTool{name: "alpha", data: payload})
	executor := NewExecutor(reg, nil)
	result := executor.Execute(context.Background(), "alpha", nil)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if !reflect.DeepEqual(result.Data, payload) {
		t.Fatalf("expected data passthrough, got %v", result.Data)
	}
	if result.Error != "" {
		t.Fatalf("success result must not carry an error")
	}
}

// Every listed tool must execute without a not-found failure, and any
// unlisted name must always fail with one.
func TestRegistryExecutorConsistency(t *testing.T) {
	var items []Tool
	for i := 0; i < 5; i++ {
		items = append(items, stubTool{name: fmt.Sprintf("tool_%d", i)})
	}
	reg, _ := NewRegistry(items...)
	executor := NewExecutor(reg, nil)

	for _, descriptor := range executor.List() {
		result := executor.Execute(context.Background(), descriptor.Name, nil)
		if strings.Contains(result.Error, "not found") {
			t.Fatalf("listed tool %q reported not found", descriptor.Name)
		}
	}
	result := executor.Execute(context.Background(), "tool_99", nil)
	if !strings.Contains(result.Error, "not found") {
		t.Fatalf("expected not found for unlisted tool, got %q", result.Error)
	}
}
