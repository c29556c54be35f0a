package services

import (
	"strings"
	"unicode"
)

// NormalizeJSON strips a single fenced-code-block wrapper from a raw model
// response expected to contain JSON. Variants with or without a language tag
// and with or without a trailing newline before the closing fence are all
// handled. Already-clean input comes back trimmed and otherwise unchanged,
// so the function is idempotent. The JSON itself is never parsed here.
func NormalizeJSON(raw string) string {
	text := strings.TrimSpace(raw)

	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}

	body := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")

	// Drop the language tag on the opening fence line, if any.
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		if isFenceTag(strings.TrimSpace(body[:idx])) {
			body = body[idx+1:]
		}
	}

	return strings.TrimSpace(body)
}

// isFenceTag reports whether s could be a fence language tag such as "json".
// An empty first line means a bare fence.
func isFenceTag(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
