package tools

import (
	"context"
	"sync"

	"repolens/internal/mcp"
)

// ListIssuesTool lists issues for a repository.
type ListIssuesTool struct {
	caller mcp.Caller
}

// NewListIssuesTool constructs the tool.
func NewListIssuesTool(caller mcp.Caller) *ListIssuesTool {
	return &ListIssuesTool{caller: caller}
}

func (t *ListIssuesTool) Name() string { return "list_issues" }

func (t *ListIssuesTool) Description() string {
	return "List issues for a repository"
}

func (t *ListIssuesTool) Params() map[string]Param {
	return map[string]Param{
		"owner": {Kind: "string", Description: "Repository owner"},
		"repo":  {Kind: "string", Description: "Repository name"},
		"state": {Kind: "string", Description: "Issue state (open, closed, all)", Optional: true},
	}
}

func (t *ListIssuesTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	owner, err := requireString(args, "owner")
	if err != nil {
		return nil, err
	}
	repo, err := requireString(args, "repo")
	if err != nil {
		return nil, err
	}
	state := stringArg(args, "state", "open")

	env, err := t.caller.CallTool(ctx, "list_issues", map[string]any{
		"owner":    owner,
		"repo":     repo,
		"state":    state,
		"per_page": 50,
	})
	if err != nil {
		return nil, err
	}
	issues := []IssueSummary{}
	for _, record := range mcp.Items(mcp.Normalize(env)) {
		issues = append(issues, projectIssue(record))
	}
	return issues, nil
}

// ListPullRequestsTool lists pull requests for a repository.
type ListPullRequestsTool struct {
	caller mcp.Caller
}

// NewListPullRequestsTool constructs the tool.
func NewListPullRequestsTool(caller mcp.Caller) *ListPullRequestsTool {
	return &ListPullRequestsTool{caller: caller}
}

func (t *ListPullRequestsTool) Name() string { return "list_pull_requests" }

func (t *ListPullRequestsTool) Description() string {
	return "List pull requests for a repository"
}

func (t *ListPullRequestsTool) Params() map[string]Param {
	return map[string]Param{
		"owner": {Kind: "string", Description: "Repository owner"},
		"repo":  {Kind: "string", Description: "Repository name"},
		"state": {Kind: "string", Description: "PR state (open, closed, all)", Optional: true},
	}
}

func (t *ListPullRequestsTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	owner, err := requireString(args, "owner")
	if err != nil {
		return nil, err
	}
	repo, err := requireString(args, "repo")
	if err != nil {
		return nil, err
	}
	state := stringArg(args, "state", "open")

	env, err := t.caller.CallTool(ctx, "list_pull_requests", map[string]any{
		"owner":    owner,
		"repo":     repo,
		"state":    state,
		"per_page": 50,
	})
	if err != nil {
		return nil, err
	}
	pulls := []PullRequestSummary{}
	for _, record := range mcp.Items(mcp.Normalize(env)) {
		pulls = append(pulls, projectPullRequest(record))
	}
	return pulls, nil
}

// RepoStats is the get_repo_stats payload. Upstream records are passed
// through unprojected so callers see the full objects.
type RepoStats struct {
	Commits      []map[string]any `json:"commits"`
	Issues       []map[string]any `json:"issues"`
	PullRequests []map[string]any `json:"pullRequests"`
}

// RepoStatsTool gathers commits, issues, and pull requests in one shot.
type RepoStatsTool struct {
	caller mcp.Caller
}

// NewRepoStatsTool constructs the tool.
func NewRepoStatsTool(caller mcp.Caller) *RepoStatsTool {
	return &RepoStatsTool{caller: caller}
}

func (t *RepoStatsTool) Name() string { return "get_repo_stats" }

func (t *RepoStatsTool) Description() string {
	return "Get comprehensive statistics for a repository"
}

func (t *RepoStatsTool) Params() map[string]Param {
	return map[string]Param{
		"owner": {Kind: "string", Description: "Repository owner"},
		"repo":  {Kind: "string", Description: "Repository name"},
	}
}

func (t *RepoStatsTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	owner, err := requireString(args, "owner")
	if err != nil {
		return nil, err
	}
	repo, err := requireString(args, "repo")
	if err != nil {
		return nil, err
	}

	calls := []struct {
		tool string
		args map[string]any
	}{
		{"list_commits", map[string]any{"owner": owner, "repo": repo, "per_page": 10}},
		{"list_issues", map[string]any{"owner": owner, "repo": repo, "state": "all", "per_page": 10}},
		{"list_pull_requests", map[string]any{"owner": owner, "repo": repo, "state": "all", "per_page": 10}},
	}

	envs := make([]mcp.Envelope, len(calls))
	errs := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, tool string, callArgs map[string]any) {
			defer wg.Done()
			envs[i], errs[i] = t.caller.CallTool(ctx, tool, callArgs)
		}(i, call.tool, call.args)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return RepoStats{
		Commits:      mcp.Items(mcp.Normalize(envs[0])),
		Issues:       mcp.Items(mcp.Normalize(envs[1])),
		PullRequests: mcp.Items(mcp.Normalize(envs[2])),
	}, nil
}
