package tools

import (
	"context"
	"time"

	"repolens/internal/mcp"
)

const (
	orgListingPerPage    = 100
	orgPreviewSize       = 10
	recentActivityWindow = 30 * 24 * time.Hour
)

// OrgMetrics is derived from a repository listing at call time; it is never
// fetched or stored.
type OrgMetrics struct {
	TotalRepositories int                `json:"totalRepositories"`
	TotalStars        int64              `json:"totalStars"`
	TotalForks        int64              `json:"totalForks"`
	Languages         []string           `json:"languages"`
	MostStarredRepo   *RepositorySummary `json:"mostStarredRepo,omitempty"`
	RecentActivity    int                `json:"recentActivity"`
	TopLanguages      map[string]int     `json:"topLanguages"`
}

// OrgInfo is the get_organization payload.
type OrgInfo struct {
	Organization      string              `json:"organization"`
	Metrics           OrgMetrics          `json:"metrics"`
	Repositories      []RepositorySummary `json:"repositories"`
	TotalRepositories int                 `json:"totalRepositories"`
}

// OrganizationTool derives organization-level metrics from its repositories.
type OrganizationTool struct {
	caller mcp.Caller
	now    func() time.Time
}

// NewOrganizationTool constructs the tool.
func NewOrganizationTool(caller mcp.Caller) *OrganizationTool {
	return &OrganizationTool{caller: caller, now: time.Now}
}

func (t *OrganizationTool) Name() string { return "get_organization" }

func (t *OrganizationTool) Description() string {
	return "Get information about a GitHub organization"
}

func (t *OrganizationTool) Params() map[string]Param {
	return map[string]Param{
		"org": {Kind: "string", Description: "Organization name"},
	}
}

func (t *OrganizationTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	org, err := requireString(args, "org")
	if err != nil {
		return nil, err
	}

	listing, err := fetchOrgRepos(ctx, t.caller, org, "updated", orgListingPerPage)
	if err != nil {
		return nil, err
	}

	repos := listing.Repositories
	preview := repos
	if len(preview) > orgPreviewSize {
		preview = preview[:orgPreviewSize]
	}

	return OrgInfo{
		Organization:      org,
		Metrics:           computeOrgMetrics(repos, t.now()),
		Repositories:      preview,
		TotalRepositories: len(repos),
	}, nil
}

func computeOrgMetrics(repos []RepositorySummary, now time.Time) OrgMetrics {
	metrics := OrgMetrics{
		TotalRepositories: len(repos),
		Languages:         []string{},
		TopLanguages:      map[string]int{},
	}

	seen := map[string]bool{}
	cutoff := now.Add(-recentActivityWindow)
	for i := range repos {
		repo := repos[i]
		metrics.TotalStars += repo.Stars
		metrics.TotalForks += repo.Forks
		if repo.Language != "" {
			if !seen[repo.Language] {
				seen[repo.Language] = true
				metrics.Languages = append(metrics.Languages, repo.Language)
			}
			metrics.TopLanguages[repo.Language]++
		}
		// Strict comparison keeps the first-encountered repository on ties.
		if metrics.MostStarredRepo == nil || repo.Stars > metrics.MostStarredRepo.Stars {
			metrics.MostStarredRepo = &repos[i]
		}
		if repo.PushedAt != "" {
			if pushed, err := time.Parse(time.RFC3339, repo.PushedAt); err == nil && pushed.After(cutoff) {
				metrics.RecentActivity++
			}
		}
	}
	return metrics
}
