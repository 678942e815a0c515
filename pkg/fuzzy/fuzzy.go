// Package fuzzy provides the string similarity primitives used to snap noisy
// command fragments onto stored values. Scores named *Ratio are on a 0-100
// scale; Similarity and Phonetic return 0-1.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s, strips diacritics and trims surrounding space.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Tokens folds s and splits it into letter/digit runs.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Similarity returns 1 - editDistance/maxLen over runes. Two empty strings are identical.
func Similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

// Ratio is Similarity scaled to 0-100 and rounded.
func Ratio(a, b string) int {
	return int(math.Round(Similarity(a, b) * 100))
}

// TokenSortRatio compares a and b after folding, tokenizing and sorting tokens,
// so word order does not matter.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedJoin(Tokens(a)), sortedJoin(Tokens(b)))
}

// TokenSetRatio compares the shared tokens of a and b against each side's
// remainder and returns the best of the three pairings. A string whose tokens
// are a subset of the other's scores 100.
func TokenSetRatio(a, b string) int {
	setA := tokenSet(Tokens(a))
	setB := tokenSet(Tokens(b))

	var common, onlyA, onlyB []string
	for tok := range setA {
		if setB[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			onlyB = append(onlyB, tok)
		}
	}

	base := sortedJoin(common)
	withA := strings.TrimSpace(base + " " + sortedJoin(onlyA))
	withB := strings.TrimSpace(base + " " + sortedJoin(onlyB))

	if len(common) == 0 {
		return Ratio(withA, withB)
	}
	return max(Ratio(base, withA), Ratio(base, withB), Ratio(withA, withB))
}

// Phonetic scores how alike a and b sound. It is the Jaro-Winkler similarity of
// the folded strings, raised to 1 when both have the same number of words and
// every word pair shares a Soundex code.
func Phonetic(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	if soundsAlike(ta, tb) {
		return 1
	}
	return smetrics.JaroWinkler(strings.Join(ta, " "), strings.Join(tb, " "), 0.7, 4)
}

func soundsAlike(ta, tb []string) bool {
	if len(ta) != len(tb) {
		return false
	}
	for i := range ta {
		if ta[i] == tb[i] {
			continue
		}
		if !isAlpha(ta[i]) || !isAlpha(tb[i]) {
			return false
		}
		if smetrics.Soundex(strings.ToUpper(ta[i])) != smetrics.Soundex(strings.ToUpper(tb[i])) {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return s != ""
}

func sortedJoin(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
