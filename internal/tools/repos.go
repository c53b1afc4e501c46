package tools

import (
	"context"
	"fmt"

	"repolens/internal/mcp"
)

// SearchResult is the search_repositories payload.
type SearchResult struct {
	TotalCount   int64               `json:"totalCount"`
	Repositories []RepositorySummary `json:"repositories"`
}

// SearchRepositoriesTool searches GitHub repositories.
type SearchRepositoriesTool struct {
	caller mcp.Caller
}

// NewSearchRepositoriesTool constructs the tool.
func NewSearchRepositoriesTool(caller mcp.Caller) *SearchRepositoriesTool {
	return &SearchRepositoriesTool{caller: caller}
}

func (t *SearchRepositoriesTool) Name() string { return "search_repositories" }

func (t *SearchRepositoriesTool) Description() string {
	return "Search for repositories on GitHub"
}

func (t *SearchRepositoriesTool) Params() map[string]Param {
	return map[string]Param{
		"query":   {Kind: "string", Description: "Search query"},
		"page":    {Kind: "number", Description: "Page number", Optional: true},
		"perPage": {Kind: "number", Description: "Results per page", Optional: true},
	}
}

func (t *SearchRepositoriesTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	query, err := requireString(args, "query")
	if err != nil {
		return nil, err
	}
	page := intArg(args, "page", 1)
	perPage := intArg(args, "perPage", 30)

	env, err := t.caller.CallTool(ctx, "search_repositories", map[string]any{
		"query":    query,
		"page":     page,
		"per_page": perPage,
	})
	if err != nil {
		return nil, err
	}
	return projectSearch(mcp.Normalize(env)), nil
}

func projectSearch(data any) SearchResult {
	result := SearchResult{Repositories: []RepositorySummary{}}
	if obj, ok := data.(map[string]any); ok {
		result.TotalCount = mapInt64(obj, "total_count")
	}
	for _, record := range mcp.Items(data) {
		result.Repositories = append(result.Repositories, projectRepository(record))
	}
	return result
}

// OrgRepositories is the list_org_repositories payload.
type OrgRepositories struct {
	TotalCount   int64               `json:"totalCount"`
	Organization string              `json:"organization"`
	Repositories []RepositorySummary `json:"repositories"`
}

// ListOrgRepositoriesTool lists repositories of one organization. The
// upstream service has no dedicated org listing, so this searches
// "org:<name>" and projects the hits.
type ListOrgRepositoriesTool struct {
	caller mcp.Caller
}

// NewListOrgRepositoriesTool constructs the tool.
func NewListOrgRepositoriesTool(caller mcp.Caller) *ListOrgRepositoriesTool {
	return &ListOrgRepositoriesTool{caller: caller}
}

func (t *ListOrgRepositoriesTool) Name() string { return "list_org_repositories" }

func (t *ListOrgRepositoriesTool) Description() string {
	return "List all repositories for a GitHub organization"
}

func (t *ListOrgRepositoriesTool) Params() map[string]Param {
	return map[string]Param{
		"org":     {Kind: "string", Description: "Organization name"},
		"type":    {Kind: "string", Description: "Repository type (all, public, private, forks, sources, member)", Optional: true},
		"sort":    {Kind: "string", Description: "Sort order (created, updated, pushed, full_name)", Optional: true},
		"perPage": {Kind: "number", Description: "Results per page", Optional: true},
	}
}

func (t *ListOrgRepositoriesTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	org, err := requireString(args, "org")
	if err != nil {
		return nil, err
	}
	sort := stringArg(args, "sort", "updated")
	perPage := intArg(args, "perPage", 30)
	return fetchOrgRepos(ctx, t.caller, org, sort, perPage)
}

func fetchOrgRepos(ctx context.Context, caller mcp.Caller, org, sort string, perPage int) (OrgRepositories, error) {
	env, err := caller.CallTool(ctx, "search_repositories", map[string]any{
		"query":    fmt.Sprintf("org:%s", org),
		"sort":     sort,
		"per_page": perPage,
	})
	if err != nil {
		return OrgRepositories{}, err
	}
	search := projectSearch(mcp.Normalize(env))
	return OrgRepositories{
		TotalCount:   search.TotalCount,
		Organization: org,
		Repositories: search.Repositories,
	}, nil
}

// GetFileContentsTool fetches one file from a repository.
type GetFileContentsTool struct {
	caller mcp.Caller
}

// NewGetFileContentsTool constructs the tool.
func NewGetFileContentsTool(caller mcp.Caller) *GetFileContentsTool {
	return &GetFileContentsTool{caller: caller}
}

func (t *GetFileContentsTool) Name() string { return "get_file_contents" }

func (t *GetFileContentsTool) Description() string {
	return "Get contents of a file from a repository"
}

func (t *GetFileContentsTool) Params() map[string]Param {
	return map[string]Param{
		"owner":  {Kind: "string", Description: "Repository owner"},
		"repo":   {Kind: "string", Description: "Repository name"},
		"path":   {Kind: "string", Description: "File path"},
		"branch": {Kind: "string", Description: "Branch name", Optional: true},
	}
}

func (t *GetFileContentsTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	owner, err := requireString(args, "owner")
	if err != nil {
		return nil, err
	}
	repo, err := requireString(args, "repo")
	if err != nil {
		return nil, err
	}
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	branch := stringArg(args, "branch", "main")

	env, err := t.caller.CallTool(ctx, "get_file_contents", map[string]any{
		"owner":  owner,
		"repo":   repo,
		"path":   path,
		"branch": branch,
	})
	if err != nil {
		return nil, err
	}
	return mcp.Normalize(env), nil
}
