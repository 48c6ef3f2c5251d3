package xwalk

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeName canonicalizes a street name for comparison: diacritics
// stripped, uppercased, interior whitespace collapsed. "Peña Blvd" and
// "PENA  BLVD" normalize identically.
func NormalizeName(name string) string {
	if out, _, err := transform.String(stripDiacritics, name); err == nil {
		name = out
	}
	return strings.Join(strings.Fields(strings.ToUpper(name)), " ")
}

// Similarity is the Sørensen–Dice coefficient over character bigrams of
// the normalized names: 1 for identical, 0 for no shared bigrams.
// Single-character names only match exactly.
func Similarity(a, b string) float64 {
	a, b = NormalizeName(a), NormalizeName(b)
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}

	var shared int
	for bg, n := range ba {
		if m, ok := bb[bg]; ok {
			shared += min(n, m)
		}
	}
	var total int
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}
	return 2 * float64(shared) / float64(total)
}

func bigrams(s string) map[string]int {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	out := make(map[string]int, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		out[string(r[i:i+2])]++
	}
	return out
}

// BestMatch returns the candidate name most similar to target at or
// above cutoff. Ties go to the earliest candidate so callers with a
// sorted name list get a deterministic answer.
func BestMatch(target string, candidates []string, cutoff float64) (string, float64, bool) {
	var (
		best      string
		bestScore float64
		found     bool
	)
	for _, cand := range candidates {
		if score := Similarity(target, cand); score >= cutoff && score > bestScore {
			best, bestScore, found = cand, score, true
		}
	}
	return best, bestScore, found
}
