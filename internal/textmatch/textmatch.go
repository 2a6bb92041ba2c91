// Package textmatch provides the shared tokenizer and Jaccard similarity
// used by both the metadata-candidate scorer and the show-structure
// title-matching strategy.
package textmatch

import (
	"regexp"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and strips diacritics so "Café" and "Cafe" compare equal.
func Fold(s string) string {
	lower := cases.Lower(language.Und).String(s)
	folded, _, err := transform.String(foldTransformer, lower)
	if err != nil {
		return lower
	}
	return folded
}

// Words extracts the lowercase, diacritic-folded alphanumeric tokens of s.
func Words(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenRe.FindAllString(Fold(s), -1) {
		set[tok] = struct{}{}
	}
	return set
}

// Jaccard returns the Jaccard similarity between two word sets: the size
// of their intersection over the size of their union. Empty inputs score 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
