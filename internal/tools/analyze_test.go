package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"repolens/internal/llm"
	"repolens/internal/mcp"
)

func analyzeCaller() *mcp.MockCaller {
	caller := mcp.NewMockCaller()
	caller.Responses["list_commits"] = mcp.TextEnvelope([]any{map[string]any{"sha": "abc123"}})
	caller.Responses["list_issues"] = mcp.TextEnvelope([]any{map[string]any{"number": float64(4), "title": "flaky test"}})
	caller.Responses["list_pull_requests"] = mcp.TextEnvelope([]any{
		map[string]any{"number": float64(9), "draft": false, "mergeable_state": "clean", "requested_reviewers": []any{map[string]any{"login": "r1"}}},
		map[string]any{"number": float64(8), "draft": true},
	})
	return caller
}

func TestAnalyzeRepositoryBuildsContext(t *testing.T) {
	caller := analyzeCaller()
	client := llm.NewMockClient()

	tool := NewAnalyzeRepositoryTool(caller, client)
	data, err := tool.Execute(context.Background(), map[string]any{"owner": "acme", "repo": "widget", "query": "Evaluate security"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := data.(AnalysisResult)
	if result.Analysis != client.Completion.Content {
		t.Fatalf("expected model content, got %q", result.Analysis)
	}
	if result.ModelInfo.ModelID != "mock-model" || result.ModelInfo.TotalTokens != 15 {
		t.Fatalf("unexpected model info: %+v", result.ModelInfo)
	}

	ctx := result.Context
	if len(ctx.RecentCommits) != 1 || len(ctx.OpenIssues) != 1 {
		t.Fatalf("unexpected context: %+v", ctx)
	}
	summary := ctx.PullRequestSummary
	if summary.TotalOpen != 2 || summary.TotalRecentlyClosed != 2 {
		t.Fatalf("unexpected summary totals: %+v", summary)
	}
	if summary.PRStatus.Drafts != 1 || summary.PRStatus.NeedsReview != 1 || summary.PRStatus.ReadyToMerge != 1 {
		t.Fatalf("unexpected pr status: %+v", summary.PRStatus)
	}
	if summary.LatestPR == nil {
		t.Fatalf("expected latest PR populated")
	}

	if len(client.Calls) != 1 {
		t.Fatalf("expected one model call, got %d", len(client.Calls))
	}
	call := client.Calls[0]
	if !strings.HasPrefix(call.UserQuery, "Evaluate security") {
		t.Fatalf("expected original query preserved, got %q", call.UserQuery)
	}
	if !strings.Contains(call.UserQuery, "security posture") {
		t.Fatalf("expected analysis focus clause appended, got %q", call.UserQuery)
	}
	if !strings.Contains(call.SystemPrompt, "abc123") {
		t.Fatalf("expected commit context embedded in system prompt")
	}
}

func TestAnalyzeRepositoryWaitsForBothPullStates(t *testing.T) {
	caller := analyzeCaller()
	tool := NewAnalyzeRepositoryTool(caller, llm.NewMockClient())
	if _, err := tool.Execute(context.Background(), map[string]any{"owner": "acme", "repo": "widget", "query": "q"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calls := caller.CallsTo("list_pull_requests")
	if len(calls) != 2 {
		t.Fatalf("expected open and closed PR fetches, got %d", len(calls))
	}
	states := map[any]bool{}
	for _, call := range calls {
		states[call.Args["state"]] = true
	}
	if !states["open"] || !states["closed"] {
		t.Fatalf("expected open and closed states, got %v", states)
	}
}

func TestAnalyzeRepositoryModelFailure(t *testing.T) {
	caller := analyzeCaller()
	client := llm.NewMockClient()
	client.Err = errors.New("analysis request failed: status 503")

	tool := NewAnalyzeRepositoryTool(caller, client)
	_, err := tool.Execute(context.Background(), map[string]any{"owner": "acme", "repo": "widget", "query": "q"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected model failure to propagate, got %v", err)
	}
}

func TestAnalyzeRepositoryRequiresParams(t *testing.T) {
	tool := NewAnalyzeRepositoryTool(mcp.NewMockCaller(), llm.NewMockClient())
	for _, args := range []map[string]any{
		{},
		{"owner": "acme"},
		{"owner": "acme", "repo": "widget"},
	} {
		if _, err := tool.Execute(context.Background(), args); err == nil {
			t.Fatalf("expected missing parameter error for %v", args)
		}
	}
}
