package usecase

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/apex/log"

	"github.com/shelflens/backend/internal/domain"
)

const (
	// defaultFuzzyThreshold is the minimum similarity a fuzzy candidate needs
	defaultFuzzyThreshold = 88.0

	// minFuzzyInputLength is the shortest normalized text fuzzy matching is attempted on
	minFuzzyInputLength = 4

	exactMatchScore = 100.0
)

// MatchConfig holds configuration for the brand matcher
type MatchConfig struct {
	FuzzyThreshold     float64
	Scorer             SimilarityScorer
	EnableDebugLogging bool
}

// Evaluation is a match decision plus the best fuzzy candidate seen, for auditing misses
type Evaluation struct {
	Decision      domain.MatchDecision
	BestCandidate string
	BestScore     *float64
}

// BrandMatcher identifies the brand of a listing from its title and raw brand hint.
// It only reads its registry and is safe for concurrent use.
type BrandMatcher struct {
	registry           *BrandRegistry
	scorer             SimilarityScorer
	fuzzyThreshold     float64
	enableDebugLogging bool
}

// NewBrandMatcher creates a matcher over registry with the given configuration
func NewBrandMatcher(registry *BrandRegistry, config MatchConfig) *BrandMatcher {
	threshold := config.FuzzyThreshold
	if threshold <= 0 {
		threshold = defaultFuzzyThreshold
	}

	scorer := config.Scorer
	if scorer == nil {
		scorer = NoopScorer{}
	}

	if registry == nil {
		registry = BuildBrandRegistry(nil)
	}

	return &BrandMatcher{
		registry:           registry,
		scorer:             scorer,
		fuzzyThreshold:     threshold,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Match returns the brand decision for a listing
func (m *BrandMatcher) Match(title, rawHint string) domain.MatchDecision {
	return m.Evaluate(title, rawHint).Decision
}

// Evaluate applies, in order: the case-sensitive special rule and exact containment on
// the title, the same two on the raw hint, fuzzy on the raw hint, then fuzzy on the title.
// The first step that succeeds decides.
func (m *BrandMatcher) Evaluate(title, rawHint string) Evaluation {
	if m.registry.Empty() {
		return Evaluation{Decision: noMatch(domain.MethodNoRegistry)}
	}

	if brand, ok := m.matchSpecialCase(title); ok {
		return m.matched(title, brand, exactMatchScore, domain.MethodSpecialCase)
	}
	if brand, ok := m.matchExact(title); ok {
		return m.matched(title, brand, exactMatchScore, domain.MethodTitleExact)
	}

	hint := strings.TrimSpace(rawHint)
	if hint != "" {
		if brand, ok := m.matchSpecialCase(hint); ok {
			return m.matched(title, brand, exactMatchScore, domain.MethodRawSpecialCase)
		}
		if brand, ok := m.matchExact(hint); ok {
			return m.matched(title, brand, exactMatchScore, domain.MethodRawExact)
		}
	}

	if !m.scorer.Available() {
		return Evaluation{Decision: noMatch(domain.MethodFuzzyUnavailable)}
	}

	var best fuzzyCandidate
	if hint != "" {
		c := m.matchFuzzy(hint)
		if c.found && c.score >= m.fuzzyThreshold {
			return m.matched(title, c.entry.Canonical, c.score, domain.MethodRawFuzzy)
		}
		best = best.better(c)
	}

	c := m.matchFuzzy(title)
	if c.found && c.score >= m.fuzzyThreshold {
		return m.matched(title, c.entry.Canonical, c.score, domain.MethodTitleFuzzy)
	}
	best = best.better(c)

	eval := Evaluation{Decision: noMatch(domain.MethodNoMatch)}
	if best.found {
		score := best.score
		eval.BestCandidate = best.entry.Canonical
		eval.BestScore = &score
	}

	if m.enableDebugLogging {
		log.WithFields(log.Fields{
			"component": "match",
			"title":     title,
			"hint":      hint,
			"candidate": eval.BestCandidate,
			"score":     best.score,
		}).Debug("no brand above threshold")
	}

	return eval
}

// matchSpecialCase finds the excluded brand as a standalone "Ou"/"OU" in the original text.
// The O must be uppercase so the lowercase conjunction "ou" never matches.
func (m *BrandMatcher) matchSpecialCase(text string) (string, bool) {
	brand, ok := m.registry.ExcludedBrand()
	if !ok || text == "" {
		return "", false
	}
	if containsStandaloneOu(text) {
		return brand, true
	}
	return "", false
}

func containsStandaloneOu(text string) bool {
	prev := rune(-1)
	for i, r := range text {
		if r != 'O' {
			prev = r
			continue
		}
		next, size := utf8.DecodeRuneInString(text[i+1:])
		if size == 0 || (next != 'u' && next != 'U') {
			prev = r
			continue
		}
		after, afterSize := utf8.DecodeRuneInString(text[i+1+size:])
		if !isWordRune(prev) && (afterSize == 0 || !isWordRune(after)) {
			return true
		}
		prev = r
	}
	return false
}

// isWordRune reports whether r glues onto an adjacent token
func isWordRune(r rune) bool {
	if r < 0 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// matchExact returns the longest registered brand whose normalized form appears as whole
// words inside the normalized text
func (m *BrandMatcher) matchExact(text string) (string, bool) {
	normalized := Normalize(text)
	if normalized == "" {
		return "", false
	}

	padded := " " + normalized + " "
	for _, entry := range m.registry.byLength {
		if strings.Contains(padded, " "+entry.Normalized+" ") {
			return entry.Canonical, true
		}
	}
	return "", false
}

type fuzzyCandidate struct {
	entry BrandEntry
	score float64
	found bool
}

func (c fuzzyCandidate) better(other fuzzyCandidate) fuzzyCandidate {
	if other.found && (!c.found || other.score > c.score) {
		return other
	}
	return c
}

// matchFuzzy scores every fuzzy candidate against the text and keeps the best one.
// Earlier registry entries win ties.
func (m *BrandMatcher) matchFuzzy(text string) fuzzyCandidate {
	normalized := Normalize(text)
	if len(normalized) < minFuzzyInputLength {
		return fuzzyCandidate{}
	}

	var best fuzzyCandidate
	for _, entry := range m.registry.candidates {
		score := clampScore(m.scorer.Score(normalized, entry.Normalized))
		if !best.found || score > best.score {
			best = fuzzyCandidate{entry: entry, score: score, found: true}
		}
	}
	return best
}

func (m *BrandMatcher) matched(title, brand string, score float64, method domain.MatchMethod) Evaluation {
	if m.enableDebugLogging {
		log.WithFields(log.Fields{
			"component": "match",
			"title":     title,
			"brand":     brand,
			"score":     score,
			"method":    method,
		}).Debug("brand matched")
	}

	b := brand
	s := score
	return Evaluation{Decision: domain.MatchDecision{Brand: &b, Score: &s, Method: method}}
}

func noMatch(method domain.MatchMethod) domain.MatchDecision {
	return domain.MatchDecision{Method: method}
}

func clampScore(score float64) float64 {
	switch {
	case math.IsNaN(score):
		return 0
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
