package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9 ]+`)
	multipleSpacesRegex  = regexp.MustCompile(` +`)
)

// Jaro-Winkler parameters
const (
	winklerPrefixLimit   = 4
	winklerScalingFactor = 0.1
)

// Normalizer maps raw text to the form compared by the similarity metrics
type Normalizer func(string) string

// Normalize prepares a string for comparison: the input is lowercased, every
// character outside [a-z0-9 ] is dropped and runs of spaces collapse to one.
// Accented letters and tabs are dropped like any other character, so "Café"
// becomes "caf"; use NormalizeFolded to keep the base letters.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// NormalizeFolded folds accents before normalizing, mapping "Café" to "cafe"
func NormalizeFolded(s string) string {
	if !isASCII(s) {
		s = foldAccents(s)
	}
	return Normalize(s)
}

func normalizerFor(fold bool) Normalizer {
	if fold {
		return NormalizeFolded
	}
	return Normalize
}

// foldAccents maps "Münchén" to "Munchen". A fresh chain is built per call
// because transform chains carry state and the matcher runs concurrently.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Similarity returns the composite similarity of a and b in [0,1].
// It is symmetric, returns 1.0 for strings that normalize identically and
// 0.0 when either side normalizes to the empty string.
func Similarity(a, b string) float64 {
	return normalizedSimilarity(Normalize(a), Normalize(b))
}

// normalizedSimilarity is Similarity for inputs that are already normalized.
// The four metrics are weighted equally.
func normalizedSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	// The overlap scan and greedy Jaro matching both depend on argument order.
	if a > b {
		a, b = b, a
	}

	score := (EditDistanceSimilarity(a, b) +
		CharacterOverlapSimilarity(a, b) +
		JaroWinklerSimilarity(a, b) +
		TokenJaccardSimilarity(a, b)) / 4

	return clamp01(score)
}

// EditDistanceSimilarity returns 1 - levenshtein(a,b)/max(len(a),len(b))
func EditDistanceSimilarity(a, b string) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return clamp01(1.0 - float64(distance)/float64(maxLen))
}

// CharacterOverlapSimilarity returns twice the number of characters shared by the
// recursive longest-common-substring scan divided by the combined length.
func CharacterOverlapSimilarity(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0.0
	}
	return clamp01(float64(2*commonCharacters(a, b)) / float64(total))
}

// commonCharacters finds the first longest common substring, then recurses into
// the fragments to its left and to its right.
func commonCharacters(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	longest, posA, posB := 0, 0, 0
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			l := 0
			for i+l < len(a) && j+l < len(b) && a[i+l] == b[j+l] {
				l++
			}
			if l > longest {
				longest, posA, posB = l, i, j
			}
		}
	}

	if longest == 0 {
		return 0
	}

	return longest +
		commonCharacters(a[:posA], b[:posB]) +
		commonCharacters(a[posA+longest:], b[posB+longest:])
}

// JaroWinklerSimilarity calculates the Jaro similarity and boosts it by the
// length of the common prefix, capped at four characters.
func JaroWinklerSimilarity(a, b string) float64 {
	jaro := jaroSimilarity(a, b)

	prefixLen := 0
	for i := 0; i < len(a) && i < len(b) && i < winklerPrefixLimit; i++ {
		if a[i] != b[i] {
			break
		}
		prefixLen++
	}

	return clamp01(jaro + float64(prefixLen)*winklerScalingFactor*(1.0-jaro))
}

func jaroSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	matchDist := max(len(a), len(b))/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	for i := 0; i < len(a); i++ {
		start := max(0, i-matchDist)
		end := min(len(b), i+matchDist+1)
		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len(a); i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}

// TokenJaccardSimilarity is |intersection| / |union| of the whitespace token sets.
// Word order does not matter.
func TokenJaccardSimilarity(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection

	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
