// Package textnorm normalizes text extracted from a rendered page into the
// single flat string handed to the spell-check models.
package textnorm

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLen caps extracted text. Very long pages are truncated instead of
	// failing or incurring unbounded model cost.
	MaxLen = 10000
	// MinLen is the least amount of text worth checking.
	MinLen = 10
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// VisibleText applies NFKC, folds every Unicode space separator (including
// non-breaking and wide spaces) plus line/paragraph separators to a plain
// ASCII space, collapses whitespace runs, and truncates to MaxLen runes.
// The second return reports whether truncation happened.
func VisibleText(raw string) (string, bool) {
	s := norm.NFKC.String(raw)
	s = foldSpaces(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	if utf8.RuneCountInString(s) > MaxLen {
		return string([]rune(s)[:MaxLen]), true
	}
	return s, false
}

func foldSpaces(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.Is(unicode.Zs, r) || r == ' ' || r == ' ' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
