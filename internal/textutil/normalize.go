package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// EllipsisMarker is appended to text shortened by Preview.
const EllipsisMarker = "..."

// NormalizeSegment trims surrounding whitespace and converts text to NFC so
// decomposed accents from the recognizer count as single characters.
func NormalizeSegment(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// CharCount returns the number of characters (runes) in the NFC form of text.
func CharCount(text string) int {
	return utf8.RuneCountInString(norm.NFC.String(text))
}

// Preview returns text shortened to at most limit characters followed by
// EllipsisMarker. Text already within the limit is returned unchanged.
func Preview(text string, limit int) string {
	text = norm.NFC.String(text)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	count := 0
	for idx := range text {
		if count == limit {
			return text[:idx] + EllipsisMarker
		}
		count++
	}
	return text
}
