package tools

import (
	"context"
	"sync"

	"repolens/internal/llm"
	"repolens/internal/mcp"
)

const analysisFocusClause = `

Please include in your analysis:
1. Current pull request status and workflow health
2. Latest pull request details and their security implications
3. PR review process effectiveness
4. Merge patterns and code integration practices
5. Any security concerns in recent PRs

Focus particularly on the latest PRs and their impact on the repository's security posture.`

// PRStatus counts open pull requests by workflow state.
type PRStatus struct {
	NeedsReview  int `json:"needsReview"`
	Drafts       int `json:"drafts"`
	ReadyToMerge int `json:"readyToMerge"`
}

// PullRequestOverview summarizes pull request activity for the model.
type PullRequestOverview struct {
	TotalOpen           int            `json:"totalOpen"`
	TotalRecentlyClosed int            `json:"totalRecentlyClosed"`
	LatestPR            map[string]any `json:"latestPR,omitempty"`
	PRStatus            PRStatus       `json:"prStatus"`
}

// AnalysisContext is the repository snapshot embedded in the model prompt.
type AnalysisContext struct {
	RecentCommits              []map[string]any    `json:"recentCommits"`
	OpenIssues                 []map[string]any    `json:"openIssues"`
	OpenPullRequests           []map[string]any    `json:"openPullRequests"`
	RecentlyClosedPullRequests []map[string]any    `json:"recentlyClosedPullRequests"`
	PullRequestSummary         PullRequestOverview `json:"pullRequestSummary"`
}

// ModelInfo carries usage metadata of the completion that produced an analysis.
type ModelInfo struct {
	ModelID      string `json:"modelId"`
	TotalTokens  int64  `json:"totalTokens"`
	PromptTokens int64  `json:"promptTokens"`
	OutputTokens int64  `json:"outputTokens"`
}

// PullRequestHighlights points at the most relevant PR data in a result.
type PullRequestHighlights struct {
	LatestPR map[string]any      `json:"latestPR,omitempty"`
	Summary  PullRequestOverview `json:"summary"`
}

// AnalysisResult is the analyze_repository payload.
type AnalysisResult struct {
	Analysis              string                `json:"analysis"`
	Context               AnalysisContext       `json:"context"`
	PullRequestHighlights PullRequestHighlights `json:"pullRequestHighlights"`
	ModelInfo             ModelInfo             `json:"modelInfo"`
}

// AnalyzeRepositoryTool gathers repository activity and asks the analysis
// model about it.
type AnalyzeRepositoryTool struct {
	caller mcp.Caller
	client llm.Client
}

// NewAnalyzeRepositoryTool constructs the tool.
func NewAnalyzeRepositoryTool(caller mcp.Caller, client llm.Client) *AnalyzeRepositoryTool {
	return &AnalyzeRepositoryTool{caller: caller, client: client}
}

func (t *AnalyzeRepositoryTool) Name() string { return "analyze_repository" }

func (t *AnalyzeRepositoryTool) Description() string {
	return "Analyze a GitHub repository with natural language queries"
}

func (t *AnalyzeRepositoryTool) Params() map[string]Param {
	return map[string]Param{
		"owner": {Kind: "string", Description: "Repository owner"},
		"repo":  {Kind: "string", Description: "Repository name"},
		"query": {Kind: "string", Description: "Analysis query"},
	}
}

func (t *AnalyzeRepositoryTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	owner, err := requireString(args, "owner")
	if err != nil {
		return nil, err
	}
	repo, err := requireString(args, "repo")
	if err != nil {
		return nil, err
	}
	query, err := requireString(args, "query")
	if err != nil {
		return nil, err
	}

	commits, err := t.caller.CallTool(ctx, "list_commits", map[string]any{"owner": owner, "repo": repo, "per_page": 10})
	if err != nil {
		return nil, err
	}
	issues, err := t.caller.CallTool(ctx, "list_issues", map[string]any{"owner": owner, "repo": repo, "state": "open", "per_page": 10})
	if err != nil {
		return nil, err
	}

	// Open and recently closed pull requests are independent; fetch both
	// before building the context.
	var openPulls, closedPulls mcp.Envelope
	var openErr, closedErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		openPulls, openErr = t.caller.CallTool(ctx, "list_pull_requests", map[string]any{"owner": owner, "repo": repo, "state": "open", "per_page": 10})
	}()
	go func() {
		defer wg.Done()
		closedPulls, closedErr = t.caller.CallTool(ctx, "list_pull_requests", map[string]any{"owner": owner, "repo": repo, "state": "closed", "per_page": 5})
	}()
	wg.Wait()
	if openErr != nil {
		return nil, openErr
	}
	if closedErr != nil {
		return nil, closedErr
	}

	analysisCtx := buildAnalysisContext(
		mcp.Items(mcp.Normalize(commits)),
		mcp.Items(mcp.Normalize(issues)),
		mcp.Items(mcp.Normalize(openPulls)),
		mcp.Items(mcp.Normalize(closedPulls)),
	)

	completion, err := llm.AnalyzeRepository(ctx, t.client, analysisCtx, query+analysisFocusClause)
	if err != nil {
		return nil, err
	}

	return AnalysisResult{
		Analysis: completion.Content,
		Context:  analysisCtx,
		PullRequestHighlights: PullRequestHighlights{
			LatestPR: analysisCtx.PullRequestSummary.LatestPR,
			Summary:  analysisCtx.PullRequestSummary,
		},
		ModelInfo: ModelInfo{
			ModelID:      completion.ModelID,
			TotalTokens:  completion.TotalTokens,
			PromptTokens: completion.PromptTokens,
			OutputTokens: completion.OutputTokens,
		},
	}, nil
}

func buildAnalysisContext(commits, issues, openPulls, closedPulls []map[string]any) AnalysisContext {
	var latest map[string]any
	if len(openPulls) > 0 {
		latest = openPulls[0]
	} else if len(closedPulls) > 0 {
		latest = closedPulls[0]
	}

	var status PRStatus
	for _, pr := range openPulls {
		draft := mapBool(pr, "draft")
		if draft {
			status.Drafts++
			continue
		}
		if reviewers, ok := pr["requested_reviewers"].([]any); ok && len(reviewers) > 0 {
			status.NeedsReview++
		}
		if mapString(pr, "mergeable_state") == "clean" {
			status.ReadyToMerge++
		}
	}

	return AnalysisContext{
		RecentCommits:              commits,
		OpenIssues:                 issues,
		OpenPullRequests:           openPulls,
		RecentlyClosedPullRequests: closedPulls,
		PullRequestSummary: PullRequestOverview{
			TotalOpen:           len(openPulls),
			TotalRecentlyClosed: len(closedPulls),
			LatestPR:            latest,
			PRStatus:            status,
		},
	}
}
