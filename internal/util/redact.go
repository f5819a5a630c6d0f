// Package util holds small helpers shared across the enrichment pipeline.
package util

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>". Tokens show up in inference error strings
	// surfaced by the HTTP stack, and those strings end up in the error log.
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|gemini[_-]?api[_-]?key)\b\s*[:=]\s*[^\s"']+`)

	// Raw Google API key tokens.
	googleKeyRe = regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{20,}\b`)
)

// RedactSecrets removes obvious secret-bearing substrings from a message
// before it is logged or written to the error log.
//
// This is intentionally conservative: it must be safe to call on any message,
// including record contents and upstream error strings.
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = googleKeyRe.ReplaceAllString(out, "<redacted_key>")
	return strings.TrimSpace(out)
}
