package utils

import (
	"strings"
	"unicode"
)

// Common alternative spellings of catalog city names
var cityAliases = map[string]string{
	"bombay":    "mumbai",
	"poona":     "pune",
	"newdelhi":  "delhi",
	"delhincr":  "delhi",
	"bangalore": "bengaluru",
	"madras":    "chennai",
	"calcutta":  "kolkata",
	"gurgaon":   "gurugram",
}

// NormalizeName reduces a place name to lowercase letters and digits so that
// "Navi-Mumbai", "navi mumbai" and " NAVI MUMBAI " compare equal
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FuzzyMatchName reports whether a user-typed term refers to the given name
func FuzzyMatchName(term, name string) bool {
	t := NormalizeName(term)
	n := NormalizeName(name)
	if t == "" || n == "" {
		return false
	}
	if t == n {
		return true
	}
	if alias, ok := cityAliases[t]; ok && alias == n {
		return true
	}
	return false
}

// BestMatch resolves term against candidates. An exact (normalized or alias)
// match wins; otherwise a single candidate starting with the term is accepted.
// Ambiguous or empty results report false.
func BestMatch(term string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if FuzzyMatchName(term, c) {
			return c, true
		}
	}

	t := NormalizeName(term)
	if t == "" {
		return "", false
	}
	var found string
	matches := 0
	for _, c := range candidates {
		if strings.HasPrefix(NormalizeName(c), t) {
			found = c
			matches++
		}
	}
	if matches == 1 {
		return found, true
	}
	return "", false
}

// RemoveControlCharacters strips non-printable control characters except newline and tab
func RemoveControlCharacters(input string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}
