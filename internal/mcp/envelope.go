package mcp

import "encoding/json"

// ContentBlock is one typed block inside a tool-call envelope.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Envelope wraps the upstream tool-call response. The useful payload is
// usually a JSON document serialized into the first "text" block.
type Envelope struct {
	Content []ContentBlock `json:"content"`
}

// Normalize unwraps an envelope into plain structured data. It is total:
// a JSON text block decodes to its value, a non-JSON text block passes
// through as the raw string, and an envelope without a text block yields
// its content blocks unchanged.
func Normalize(env Envelope) any {
	for _, block := range env.Content {
		if block.Type != "text" {
			continue
		}
		var value any
		if err := json.Unmarshal([]byte(block.Text), &value); err == nil {
			return value
		}
		return block.Text
	}
	return env.Content
}

// Items extracts a record list from normalized data. Upstream responses are
// either a bare array or an object with an "items" array; anything else
// yields an empty slice rather than an error.
func Items(v any) []map[string]any {
	var list []any
	switch data := v.(type) {
	case []any:
		list = data
	case map[string]any:
		if items, ok := data["items"].([]any); ok {
			list = items
		}
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if record, ok := item.(map[string]any); ok {
			out = append(out, record)
		}
	}
	return out
}
