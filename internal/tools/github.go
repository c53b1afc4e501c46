package tools

// Canonical projections of upstream GitHub records. Field extraction is
// total: anything the upstream record omits maps to the zero value.

// RepositoryOwner is the owner sub-object of a repository summary.
type RepositoryOwner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	Type      string `json:"type"`
}

// RepositorySummary is the canonical repository shape emitted by every
// repository-listing tool regardless of upstream field names.
type RepositorySummary struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	FullName      string          `json:"fullName"`
	Description   string          `json:"description"`
	Stars         int64           `json:"stars"`
	Forks         int64           `json:"forks"`
	Language      string          `json:"language"`
	Topics        []string        `json:"topics"`
	HTMLURL       string          `json:"htmlUrl"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
	PushedAt      string          `json:"pushedAt,omitempty"`
	IsPrivate     bool            `json:"isPrivate"`
	DefaultBranch string          `json:"defaultBranch,omitempty"`
	Owner         RepositoryOwner `json:"owner"`
}

// IssueSummary is the canonical issue projection.
type IssueSummary struct {
	Number    int64    `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	HTMLURL   string   `json:"htmlUrl"`
	User      string   `json:"user"`
	Labels    []string `json:"labels"`
	Comments  int64    `json:"comments"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// PullRequestSummary is the canonical pull request projection.
type PullRequestSummary struct {
	Number             int64  `json:"number"`
	Title              string `json:"title"`
	State              string `json:"state"`
	HTMLURL            string `json:"htmlUrl"`
	User               string `json:"user"`
	Draft              bool   `json:"draft"`
	MergeableState     string `json:"mergeableState,omitempty"`
	RequestedReviewers int    `json:"requestedReviewers"`
	CreatedAt          string `json:"createdAt"`
	UpdatedAt          string `json:"updatedAt"`
}

func projectRepository(record map[string]any) RepositorySummary {
	owner, _ := record["owner"].(map[string]any)
	return RepositorySummary{
		ID:            mapInt64(record, "id"),
		Name:          mapString(record, "name"),
		FullName:      mapString(record, "full_name"),
		Description:   mapString(record, "description"),
		Stars:         mapInt64(record, "stargazers_count"),
		Forks:         mapInt64(record, "forks_count"),
		Language:      mapString(record, "language"),
		Topics:        mapStringSlice(record, "topics"),
		HTMLURL:       mapString(record, "html_url"),
		CreatedAt:     mapString(record, "created_at"),
		UpdatedAt:     mapString(record, "updated_at"),
		PushedAt:      mapString(record, "pushed_at"),
		IsPrivate:     mapBool(record, "private"),
		DefaultBranch: mapString(record, "default_branch"),
		Owner: RepositoryOwner{
			Login:     mapString(owner, "login"),
			AvatarURL: mapString(owner, "avatar_url"),
			Type:      mapString(owner, "type"),
		},
	}
}

func projectIssue(record map[string]any) IssueSummary {
	user, _ := record["user"].(map[string]any)
	var labels []string
	if raw, ok := record["labels"].([]any); ok {
		for _, item := range raw {
			if label, ok := item.(map[string]any); ok {
				if name := mapString(label, "name"); name != "" {
					labels = append(labels, name)
				}
			}
		}
	}
	return IssueSummary{
		Number:    mapInt64(record, "number"),
		Title:     mapString(record, "title"),
		State:     mapString(record, "state"),
		HTMLURL:   mapString(record, "html_url"),
		User:      mapString(user, "login"),
		Labels:    labels,
		Comments:  mapInt64(record, "comments"),
		CreatedAt: mapString(record, "created_at"),
		UpdatedAt: mapString(record, "updated_at"),
	}
}

func projectPullRequest(record map[string]any) PullRequestSummary {
	user, _ := record["user"].(map[string]any)
	reviewers := 0
	if raw, ok := record["requested_reviewers"].([]any); ok {
		reviewers = len(raw)
	}
	return PullRequestSummary{
		Number:             mapInt64(record, "number"),
		Title:              mapString(record, "title"),
		State:              mapString(record, "state"),
		HTMLURL:            mapString(record, "html_url"),
		User:               mapString(user, "login"),
		Draft:              mapBool(record, "draft"),
		MergeableState:     mapString(record, "mergeable_state"),
		RequestedReviewers: reviewers,
		CreatedAt:          mapString(record, "created_at"),
		UpdatedAt:          mapString(record, "updated_at"),
	}
}

func mapString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func mapInt64(m map[string]any, key string) int64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

func mapBool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

func mapStringSlice(m map[string]any, key string) []string {
	out := []string{}
	if m == nil {
		return out
	}
	raw, _ := m[key].([]any)
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
