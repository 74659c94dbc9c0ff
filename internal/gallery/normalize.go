package gallery

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText returns s in NFC form without control characters, with
// whitespace runs collapsed to single spaces.
func NormalizeText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	t := transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cc)))
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// NormalizeDescription is like NormalizeText but keeps line breaks.
func NormalizeDescription(s string) string {
	t := transform.Chain(norm.NFC, runes.Remove(runes.Predicate(func(r rune) bool {
		return unicode.IsControl(r) && r != '\n'
	})))
	result, _, err := transform.String(t, strings.ReplaceAll(s, "\r\n", "\n"))
	if err != nil {
		result = s
	}
	return strings.TrimSpace(result)
}
