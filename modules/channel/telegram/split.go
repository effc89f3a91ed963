package telegram

import (
	"strings"
	"unicode/utf8"
)

// splitText breaks text into chunks of at most maxLen runes, preferring
// line boundaries. Digest and reply markup never spans lines, so a line
// split keeps every chunk's HTML balanced.
func splitText(text string, maxLen int) []string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var (
		chunks []string
		lines  []string
		size   int
	)
	flush := func() {
		if len(lines) > 0 {
			chunks = append(chunks, strings.Join(lines, "\n"))
			lines, size = lines[:0], 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		if len(lines) > 0 && size+1+n > maxLen {
			flush()
		}
		if n > maxLen {
			chunks = append(chunks, forceSplit(line, maxLen)...)
			continue
		}
		if len(lines) > 0 {
			size++
		}
		lines = append(lines, line)
		size += n
	}
	flush()
	return chunks
}

// forceSplit breaks a single long line into chunks of at most maxLen runes.
func forceSplit(line string, maxLen int) []string {
	runes := []rune(line)
	var parts []string
	for len(runes) > maxLen {
		parts = append(parts, string(runes[:maxLen]))
		runes = runes[maxLen:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
