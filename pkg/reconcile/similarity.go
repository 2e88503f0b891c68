package reconcile

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const gramPad = '-'

var folder = cases.Fold()

// Normalize folds case and width, drops punctuation and collapses whitespace so
// that formatting differences do not affect matching.
func Normalize(s string) string {
	s = folder.String(norm.NFKC.String(s))

	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteRune(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '_', r == '-':
			space = true
		}
	}
	return b.String()
}

// grams counts the padded character n-grams of an already normalized string
func grams(s string, n int) map[string]float64 {
	runes := []rune(string(gramPad) + s + string(gramPad))
	for len(runes) < n {
		runes = append(runes, gramPad)
	}

	counts := make(map[string]float64, len(runes))
	for i := 0; i+n <= len(runes); i++ {
		counts[string(runes[i:i+n])]++
	}
	return counts
}

func vectorNorm(v map[string]float64) float64 {
	var sum float64
	for _, c := range v {
		sum += c * c
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine similarity of two gram vectors with precomputed norms
func cosine(a map[string]float64, aNorm float64, b map[string]float64, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}

	var dot float64
	for g, c := range a {
		dot += c * b[g]
	}
	return dot / (aNorm * bNorm)
}

// levenshtein returns the edit distance between a and b counted in runes
func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(br)]
}

// editRatio is 1 for identical strings and 0 when every rune differs
func editRatio(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// Similarity scores two raw titles in [0,1] using the same normalisation as Reconcile
func Similarity(a, b string) float64 {
	return editRatio(Normalize(a), Normalize(b))
}
