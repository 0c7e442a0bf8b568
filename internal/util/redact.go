package util

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens). Keep it broad: tokens show up
	// in logs via downstream libraries and HTTP error messages.
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b((?:google|anthropic|gemini)?[_-]?api[_-]?key|x-api-key)\b\s*[:=]\s*[^\s"']+`)

	// Credentials passed as URL query parameters. The search API authenticates with
	// ?key=..., and failed requests echo the full URL in transport errors.
	urlKeyParamRe = regexp.MustCompile(`(?i)([?&](?:key|api_key|apikey|access_token)=)[^\s&"']+`)
)

// RedactSecrets removes obvious secret-bearing substrings from error/log strings.
//
// This is intentionally conservative: it should be safe to call on any message,
// including user-provided inputs and upstream error strings.
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = urlKeyParamRe.ReplaceAllString(out, "${1}<redacted>")
	return strings.TrimSpace(out)
}
