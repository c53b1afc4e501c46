package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// stringArg returns a trimmed string argument or the default when absent.
func stringArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return def
}

// requireString returns an error naming the missing parameter. Required
// parameters have no defaults.
func requireString(args map[string]any, key string) (string, error) {
	if v := stringArg(args, key, ""); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("missing required parameter %q", key)
}

// intArg tolerates the numeric shapes JSON decoding and query-string parsing
// produce.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return def
}
