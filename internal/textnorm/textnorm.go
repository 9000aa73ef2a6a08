// Package textnorm holds the single text equivalence relation used when
// comparing OCR output with spreadsheet cells: whitespace runs collapse to one
// space, the result is trimmed and lowercased.
package textnorm

import "strings"

// Normalize collapses whitespace, trims and lowercases s. It is idempotent.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Tokens returns the set of whitespace-delimited words of the normalized text
func Tokens(s string) map[string]struct{} {
	fields := strings.Fields(Normalize(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Overlap counts the tokens present in both sets
func Overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}

// Contains reports whether needle is a substring of haystack after both are normalized.
// An empty needle is always contained.
func Contains(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}
