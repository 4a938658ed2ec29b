// Package strings holds the small text normalizations shared by search,
// reports and the dashboard.
package strings

import (
	"strings"
	"unicode/utf8"
)

// NormalizeTerm trims a search term. Inner whitespace is significant: a
// stored "Ram  Kumar" only matches a term with the same spacing.
func NormalizeTerm(term string) string {
	return strings.TrimSpace(term)
}

// RuneLen counts characters rather than bytes so Devanagari input is
// measured the way a user sees it.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// OrDefault returns fallback when s is blank.
func OrDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// DedupeAndTrimLower trims, lowercases and dedupes, dropping blanks.
// Order of first occurrence is kept.
//
//	DedupeAndTrimLower([]string{"  Rampur ", "rampur", "Sonpur"})
//	// []string{"rampur", "sonpur"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			result = append(result, key)
		}
	}
	return result
}

// CountDistinctFold counts distinct non-blank values, ignoring case and
// surrounding whitespace.
func CountDistinctFold(values []string) int {
	return len(DedupeAndTrimLower(values))
}
