package llm

import "strings"

// StripCodeFence removes a wrapping markdown code fence (with or without a
// language tag) from an AI response, returning the inner text. Responses
// without a fence pass through trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the opening fence line, language tag included.
		head := strings.TrimSpace(s[:i])
		if head == "" || isFenceTag(head) {
			s = s[i+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isFenceTag reports whether the text after the opening fence is a language
// tag rather than payload content.
func isFenceTag(head string) bool {
	return head == "json" || head == "JSON"
}
