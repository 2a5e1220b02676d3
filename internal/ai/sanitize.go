package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// stringLiteral matches a JSON string: a quote, then non-quote/non-backslash
// characters or escaped pairs, then the closing quote.
var stringLiteral = regexp.MustCompile(`(?s)"(?:[^"\\]|\\.)*"`)

var controlEscaper = strings.NewReplacer(
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// Sanitize repairs model output that contains raw control characters inside
// JSON string values. Valid JSON is returned unchanged. Text outside string
// literals is never modified, so truncated or unbalanced input still fails to parse.
func Sanitize(raw string) string {
	if json.Valid([]byte(raw)) {
		return raw
	}
	return stringLiteral.ReplaceAllStringFunc(raw, controlEscaper.Replace)
}

// stripFences removes markdown code fences some models wrap around JSON
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
