package usecase

import (
	"sort"
	"strings"
)

// SimilarityScorer is the optional fuzzy-matching capability used by BrandMatcher.
// Score returns a similarity in [0,100] between two normalized strings.
type SimilarityScorer interface {
	Available() bool
	Score(a, b string) float64
}

// NoopScorer stands in when fuzzy matching is disabled or unavailable
type NoopScorer struct{}

// Available always reports false
func (NoopScorer) Available() bool { return false }

// Score always returns 0
func (NoopScorer) Score(_, _ string) float64 { return 0 }

// Partial-match scaling, applied when one string is much longer than the other
const (
	tokenScale         = 0.95
	partialScale       = 0.90
	longPartialScale   = 0.60
	partialLengthRatio = 1.5
	longLengthRatio    = 8.0
)

// WeightedRatioScorer combines an indel ratio with token-sort, token-set and
// best-window partial ratios, so word reordering and a brand embedded in a longer
// title still score high. Scores follow the rapidfuzz WRatio scale the fuzzy
// threshold is tuned for.
type WeightedRatioScorer struct{}

// Available always reports true
func (WeightedRatioScorer) Available() bool { return true }

// Score returns the weighted similarity of a and b in [0,100]
func (WeightedRatioScorer) Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	la, lb := len([]rune(a)), len([]rune(b))
	shorter, longer := la, lb
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	lenRatio := float64(longer) / float64(shorter)

	best := ratio(a, b)

	if lenRatio < partialLengthRatio {
		best = max(best, tokenSortRatio(a, b)*tokenScale)
		best = max(best, tokenSetRatio(a, b)*tokenScale)
		return best
	}

	scale := partialScale
	if lenRatio >= longLengthRatio {
		scale = longPartialScale
	}

	best = max(best, partialRatio(a, b)*scale)
	best = max(best, partialTokenRatio(a, b)*tokenScale*scale)
	return best
}

// ratio is the normalized indel similarity: a substitution counts as a deletion
// plus an insertion, so 100 * 2*LCS / (len(a)+len(b))
func ratio(a, b string) float64 {
	return runeRatio([]rune(a), []rune(b))
}

func runeRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return float64(2*lcsLength(a, b)) / float64(total) * 100
}

// lcsLength is the length of the longest common subsequence of a and b
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// partialRatio scores the shorter string against its best-matching window of the
// longer one. Windows cut off at either edge of the longer string count too.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) == 0 || len(long) == 0 {
		return 0
	}
	if len(short) > len(long) {
		short, long = long, short
	}

	n := len(short)
	best := 0.0
	try := func(window []rune) bool {
		if score := runeRatio(short, window); score > best {
			best = score
		}
		return best == 100
	}

	for i := 1; i < n; i++ {
		if try(long[:i]) {
			return best
		}
	}
	for i := 0; i+n <= len(long); i++ {
		if try(long[i : i+n]) {
			return best
		}
	}
	for i := len(long) - n + 1; i < len(long); i++ {
		if try(long[i:]) {
			return best
		}
	}
	return best
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

// tokenSetRatio compares the shared tokens against each side's shared+remaining tokens
func tokenSetRatio(a, b string) float64 {
	common, onlyA, onlyB := splitTokens(a, b)

	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := ratio(withA, withB)
	if base != "" {
		best = max(best, ratio(base, withA))
		best = max(best, ratio(base, withB))
	}
	return best
}

// partialTokenRatio is 100 when the strings share a word, otherwise the partial
// ratio of their sorted tokens
func partialTokenRatio(a, b string) float64 {
	common, _, _ := splitTokens(a, b)
	if len(common) > 0 {
		return 100
	}
	return partialRatio(sortedTokens(a), sortedTokens(b))
}

// splitTokens returns the sorted distinct tokens shared by a and b and those only in each
func splitTokens(a, b string) (common, onlyA, onlyB []string) {
	setA := tokenSet(a)
	setB := tokenSet(b)

	for t := range setA {
		if setB[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return common, onlyA, onlyB
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}
