package message

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// CleanText flattens line breaks into spaces and trims surrounding whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most maxRunes runes, appending Ellipsis when cut.
// A non-positive maxRunes disables truncation.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + Ellipsis
}

// IsBlank reports whether s is empty after cleaning.
func IsBlank(s string) bool {
	return CleanText(s) == ""
}
