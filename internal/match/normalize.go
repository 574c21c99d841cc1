// Package match resolves free-text client names to client identities and
// links timestamped records to session occurrences. Everything here is pure:
// no I/O, no logging, deterministic for a given input.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases, trims, folds diacritics and collapses internal
// whitespace. An empty result means "no signal".
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	return strings.Join(strings.Fields(s), " ")
}

// Tokens returns the whitespace-separated tokens of the normalized name
func Tokens(raw string) []string {
	return strings.Fields(Normalize(raw))
}

// stripDiacritics decomposes to NFD and drops combining marks
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// firstLast returns "first last" for names with at least two tokens
func firstLast(tokens []string) (string, bool) {
	if len(tokens) < 2 {
		return "", false
	}
	return tokens[0] + " " + tokens[len(tokens)-1], true
}
