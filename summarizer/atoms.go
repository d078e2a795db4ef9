// Package summarizer chunks input text and decides how a hosted LLM should
// summarize it: a single "stuff" call for short input, map-reduce for long input.
package summarizer

import (
	"strings"
	"unicode/utf8"
)

// CountWords returns the number of whitespace-separated words in text.
// Punctuation-only tokens count as words.
//
// Example:
//
//	CountWords("hello  world\n") // 2
//	CountWords("   ")            // 0
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// IsBlank reports whether text has no non-whitespace characters.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// CharLength is the default length function: Unicode code points.
func CharLength(text string) int {
	return utf8.RuneCountInString(text)
}

// TruncateWithEllipsis shortens text to at most maxLen runes, ending in "..."
// when something was cut. Used for history previews.
//
// Example:
//
//	TruncateWithEllipsis("Hello, world!", 8) // "Hello..."
func TruncateWithEllipsis(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen < 4 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
