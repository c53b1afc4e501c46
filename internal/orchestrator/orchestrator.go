package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"repolens/internal/tools"
)

// AnalysisError marks a failed per-repository analysis inside a batch.
type AnalysisError struct {
	Error string `json:"error"`
}

// Outcome pairs one repository with its analysis or failure.
type Outcome struct {
	Repository tools.RepositorySummary `json:"repository"`
	Analysis   any                     `json:"analysis"`
}

// OrgAnalysis aggregates one organization-wide analysis run.
type OrgAnalysis struct {
	Organization         string    `json:"organization"`
	TotalRepositories    int64     `json:"totalRepositories"`
	AnalyzedRepositories int       `json:"analyzedRepositories"`
	Query                string    `json:"query"`
	RunID                string    `json:"runId"`
	Analyses             []Outcome `json:"analyses"`
}

// Orchestrator fans out per-repository analyses across an organization.
type Orchestrator struct {
	executor      *tools.Executor
	logger        *zap.Logger
	maxConcurrent int
}

// New constructs an Orchestrator. maxConcurrent bounds simultaneous
// per-repository analyses.
func New(executor *tools.Executor, logger *zap.Logger, maxConcurrent int) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Orchestrator{executor: executor, logger: logger, maxConcurrent: maxConcurrent}
}

// AnalyzeOrganization lists up to limit repositories and analyzes each one
// concurrently. A repository's failure is captured in its own outcome; only
// a failed listing fails the whole operation. Results keep listing order no
// matter which analysis finishes first.
func (o *Orchestrator) AnalyzeOrganization(ctx context.Context, org, query string, limit int) (OrgAnalysis, error) {
	runID := uuid.NewString()
	logger := o.logger.With(zap.String("run_id", runID), zap.String("org", org))

	listing := o.executor.Execute(ctx, "list_org_repositories", map[string]any{"org": org, "perPage": limit})
	if !listing.Success {
		return OrgAnalysis{}, fmt.Errorf("list organization repositories: %s", listing.Error)
	}
	repos, ok := listing.Data.(tools.OrgRepositories)
	if !ok {
		return OrgAnalysis{}, fmt.Errorf("unexpected listing payload %T", listing.Data)
	}

	targets := repos.Repositories
	if limit > 0 && len(targets) > limit {
		targets = targets[:limit]
	}
	logger.Info("starting organization analysis", zap.Int("repositories", len(targets)), zap.Int("max_concurrent", o.maxConcurrent))

	outcomes := make([]Outcome, len(targets))
	sem := make(chan struct{}, o.maxConcurrent)
	var wg sync.WaitGroup
	for i := range targets {
		wg.Add(1)
		go func(i int, repo tools.RepositorySummary) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = o.analyzeOne(ctx, org, repo, query)
		}(i, targets[i])
	}
	wg.Wait()

	failed := 0
	for _, outcome := range outcomes {
		if _, ok := outcome.Analysis.(AnalysisError); ok {
			failed++
		}
	}
	logger.Info("organization analysis finished", zap.Int("analyzed", len(outcomes)), zap.Int("failed", failed))

	return OrgAnalysis{
		Organization:         org,
		TotalRepositories:    repos.TotalCount,
		AnalyzedRepositories: len(outcomes),
		Query:                query,
		RunID:                runID,
		Analyses:             outcomes,
	}, nil
}

func (o *Orchestrator) analyzeOne(ctx context.Context, org string, repo tools.RepositorySummary, query string) Outcome {
	owner, name, found := strings.Cut(repo.FullName, "/")
	if !found || owner == "" || name == "" {
		owner, name = org, repo.Name
	}
	focused := fmt.Sprintf("%s (Focus on this repository: %s)", query, repo.FullName)

	result := o.executor.Execute(ctx, "analyze_repository", map[string]any{
		"owner": owner,
		"repo":  name,
		"query": focused,
	})
	if !result.Success {
		o.logger.Warn("repository analysis failed", zap.String("repository", repo.FullName), zap.String("error", result.Error))
		return Outcome{Repository: repo, Analysis: AnalysisError{Error: result.Error}}
	}
	return Outcome{Repository: repo, Analysis: result.Data}
}
