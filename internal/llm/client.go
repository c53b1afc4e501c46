package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Completion is a model response plus usage metadata.
type Completion struct {
	Content      string `json:"content"`
	ModelID      string `json:"modelId"`
	ResponseID   string `json:"responseId,omitempty"`
	PromptTokens int64  `json:"promptTokens"`
	OutputTokens int64  `json:"outputTokens"`
	TotalTokens  int64  `json:"totalTokens"`
}

// Client generates one completion from a system prompt and a user query.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userQuery string) (Completion, error)
}

// AnalyzeRepository asks the model to analyze repository data. The serialized
// repository context is embedded in the system prompt so the user query stays
// free-form.
func AnalyzeRepository(ctx context.Context, client Client, repoData any, query string) (Completion, error) {
	serialized, err := json.MarshalIndent(repoData, "", "  ")
	if err != nil {
		return Completion{}, fmt.Errorf("serialize repository context: %w", err)
	}
	return client.Generate(ctx, analysisSystemPrompt(string(serialized)), query)
}
