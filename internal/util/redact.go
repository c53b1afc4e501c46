package util

import "regexp"

var (
	keyValuePattern = regexp.MustCompile(`(?i)(client_secret|client_id|api_key|apikey|secret|token|password|access_key)["']?\s*[:=]\s*["']?([^\s"',}]+)`)
	bearerPattern   = regexp.MustCompile(`(?i)bearer\s+[a-z0-9._~+/-]+=*`)
	basicPattern    = regexp.MustCompile(`(?i)basic\s+[a-z0-9+/]+=*`)
	jwtPattern      = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.?[a-zA-Z0-9_-]*`)
	ghTokenPattern  = regexp.MustCompile(`(?i)gh[pousr]_[a-z0-9]{20,}`)
)

// RedactSecrets removes likely credentials from text before it reaches logs.
func RedactSecrets(input string) string {
	out := keyValuePattern.ReplaceAllString(input, `$1=[REDACTED]`)
	out = bearerPattern.ReplaceAllString(out, "Bearer [REDACTED]")
	out = basicPattern.ReplaceAllString(out, "Basic [REDACTED]")
	out = jwtPattern.ReplaceAllString(out, "[REDACTED JWT]")
	out = ghTokenPattern.ReplaceAllString(out, "[REDACTED TOKEN]")
	return out
}
