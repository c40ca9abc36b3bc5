package service

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup from user-supplied text.
type Sanitizer interface {
	Sanitize(s string) string
}

func defaultSanitizer() Sanitizer {
	return bluemonday.StrictPolicy()
}

// cleanText strips markup from s and reports whether the result has between
// minLen and maxLen characters. The sanitizer escapes the text it keeps, so the
// result is unescaped again: stored text is plain text, and escaping belongs to
// whoever renders it.
func cleanText(sanitizer Sanitizer, s string, minLen, maxLen int) (string, bool) {
	clean := strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(s)))
	n := utf8.RuneCountInString(clean)
	return clean, n >= minLen && n <= maxLen
}
