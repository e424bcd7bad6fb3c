// Package phonetics provides the phonetic blocking codes and the string
// similarity used by the matcher. A Service is built once at startup and is
// safe for concurrent use; it holds no mutable state.
package phonetics

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// ExactKeyPrefix marks a blocking key that is the literal name rather than a
// metaphone code. Metaphone codes are upper-case letters only, so the two
// never collide.
const ExactKeyPrefix = "="

// minEncodable is the shortest name that gets a phonetic code.
const minEncodable = 2

// Service wraps Double Metaphone and Jaro-Winkler.
type Service struct{}

// NewService creates a phonetics service
func NewService() *Service {
	return &Service{}
}

// Codes returns the blocking keys for a normalized last name: the primary
// metaphone code and the alternate when it differs. Names too short to
// encode, or that produce no code, fall back to an exact-string key.
func (s *Service) Codes(lastName string) []string {
	letters := lettersOnly(lastName)
	if letters == "" {
		return nil
	}
	if len([]rune(letters)) < minEncodable {
		return []string{ExactKeyPrefix + letters}
	}

	primary, secondary := matchr.DoubleMetaphone(strings.ToUpper(letters))
	if primary == "" {
		return []string{ExactKeyPrefix + letters}
	}
	if secondary == "" || secondary == primary {
		return []string{primary}
	}
	return []string{primary, secondary}
}

// Similarity is the Jaro-Winkler similarity of two strings in [0,1].
func (s *Service) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	return matchr.JaroWinkler(a, b, false)
}

// lettersOnly lowercases and drops everything but letters, so "o'brien"
// and "de la cruz" encode as one word.
func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}
