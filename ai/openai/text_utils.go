package openai

import "strings"

// cleanTranscript strips the markdown fences chat models sometimes wrap
// around plain-text answers and trims surrounding whitespace.
func cleanTranscript(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag such as ```text on the opening fence.
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], " \t") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
