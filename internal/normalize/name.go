package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName lowercases and trims a personal name, folds diacritics and
// keeps only letters, spaces, hyphens and apostrophes, collapsing runs of
// whitespace to a single space.
func NormalizeName(s string) string {
	s = strings.ToLower(foldDiacritics(strings.TrimSpace(s)))

	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), r == '-', r == '\'':
			b.WriteRune(r)
		case r == '’' || r == '`':
			b.WriteRune('\'')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeCity lowercases, trims and collapses whitespace in a city name.
// Punctuation is preserved; see CityKey for the lookup form.
func NormalizeCity(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(foldDiacritics(s))), " ")
}

// CityKey is the form used for alias lookups: NormalizeCity with periods
// and commas dropped, so "St. Albans" and "st albans" share a key.
func CityKey(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return -1
		}
		return r
	}, s)
	return NormalizeCity(s)
}

// NormalizeZip returns the first five digits of a US zip code, or "" when
// fewer than five digits are present.
func NormalizeZip(s string) string {
	digits := make([]byte, 0, 5)
	for i := 0; i < len(s) && len(digits) < 5; i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		} else if c == '-' {
			break
		}
	}
	if len(digits) < 5 {
		return ""
	}
	return string(digits)
}

// ZipPrefix returns the three-digit sectional center prefix of a zip code.
func ZipPrefix(s string) string {
	z := NormalizeZip(s)
	if z == "" {
		return ""
	}
	return z[:3]
}

// NormalizeGender maps common spellings to "M" or "F". Anything else,
// including "U" for unknown, is treated as absent and returns "".
func NormalizeGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "man":
		return "M"
	case "f", "female", "woman":
		return "F"
	default:
		return ""
	}
}

// foldDiacritics strips combining marks after canonical decomposition.
func foldDiacritics(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, norm.NFD.String(s))
}
