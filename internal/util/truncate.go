package util

import "strings"

// TruncateBytes trims a string to maxBytes if needed.
func TruncateBytes(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(input) <= maxBytes {
		return input, false
	}
	return input[:maxBytes], true
}

// Snippet returns a single-line, size-bounded form of an upstream response
// body suitable for embedding in error messages and logs.
func Snippet(body string, maxBytes int) string {
	out := strings.Join(strings.Fields(body), " ")
	out, truncated := TruncateBytes(out, maxBytes)
	if truncated {
		out += "..."
	}
	return out
}
