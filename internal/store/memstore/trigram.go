package memstore

import (
	"strings"
	"unicode"
)

// trigrams splits s into pg_trgm style trigrams. Words are runs of letters
// and digits, so apostrophes and hyphens separate words; each word is
// lowercased and padded with two leading spaces and one trailing space.
func trigrams(s string) map[string]bool {
	set := make(map[string]bool)
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		padded := []rune("  " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = true
		}
	}
	return set
}

// similarity is the share of distinct trigrams the two sets have in common
func similarity(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if b[t] {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}
