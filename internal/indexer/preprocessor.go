package indexer

import (
	"strings"
	"unicode"
)

// Preprocess normalizes extracted text before it is stored: line endings
// become \n, runs of horizontal whitespace collapse to one space, more than
// one blank line collapses to one, and the result is trimmed. Stored text is
// what chunk offsets refer to, so this runs once at document creation.
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	newlines := 0
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r == '\n':
			pendingSpace = false
			newlines++
		case unicode.IsSpace(r):
			if newlines == 0 {
				pendingSpace = true
			}
		default:
			if newlines > 0 {
				b.WriteString(strings.Repeat("\n", min(newlines, 2)))
				newlines = 0
			} else if pendingSpace {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
