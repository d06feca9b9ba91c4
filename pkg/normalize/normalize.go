// Package normalize prepares free text for keyword matching.
package normalize

import (
	"regexp"
	"strings"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s()]`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Text lower-cases s, replaces every character outside [a-z0-9\s()] with a
// space, collapses whitespace runs and trims the result.
func Text(s string) string {
	s = strings.ToLower(s)
	s = disallowed.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Words returns the space separated tokens of the normalized text.
func Words(s string) []string {
	n := Text(s)
	if n == "" {
		return nil
	}
	return strings.Split(n, " ")
}

// FirstWord returns the first normalized token of s, or "" when s has none.
func FirstWord(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}
