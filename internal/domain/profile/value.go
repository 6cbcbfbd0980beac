package profile

import (
	"strings"
	"unicode"
)

var placeholderValues = map[string]struct{}{
	"n/a":     {},
	"unknown": {},
	"none":    {},
}

// IsValidValue reports whether a scraped value carries real content: it must contain
// at least one letter or digit in any script and must not be a textual null.
// "?", "?\t-" and "?, ?" are invalid; "Tokyo" and "東京" are valid.
func IsValidValue(v string) bool {
	s := strings.TrimSpace(v)
	if s == "" {
		return false
	}
	if _, ok := placeholderValues[strings.ToLower(s)]; ok {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// CleanValue trims surrounding whitespace and trailing separator debris ("Tokyo\t-" -> "Tokyo").
func CleanValue(v string) string {
	return strings.Trim(strings.TrimSpace(v), "\t -")
}
