package usecase

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// excludedBrandKey is the compact normalized form of the brand that collides with the
	// Portuguese word "ou"; it is only ever matched by the case-sensitive rule.
	excludedBrandKey = "OU"

	// minFuzzyBrandLength is the shortest normalized brand admitted to the fuzzy pool
	// unless it carries a digit.
	minFuzzyBrandLength = 4
)

// BrandEntry is one registered brand: its display spelling, the normalized form of that
// spelling, and every normalized spelling that collapsed into it
type BrandEntry struct {
	Canonical  string
	Normalized string
	Variants   []string
}

// BrandRegistry is the read-only brand catalog built once per run.
// It is safe for concurrent use by any number of matchers.
type BrandRegistry struct {
	entries    []BrandEntry // first-seen order
	byLength   []BrandEntry // one per variant, longest normalized form first
	candidates []BrandEntry // fuzzy pool
	normMap    map[string]string
	excluded   string
}

// compactKey identifies spellings that differ only in spacing or punctuation
func compactKey(normalized string) string {
	return strings.ReplaceAll(normalized, " ", "")
}

// BuildBrandRegistry builds the registry from a raw, possibly messy brand list.
// Names whose normalized forms match once spaces are ignored ("EuroHome", "Euro Home")
// collapse into one brand. Its canonical spelling is one with an interior space over one
// without, then the longer one, then the first seen. Every variant still matches exactly.
func BuildBrandRegistry(names []string) *BrandRegistry {
	r := &BrandRegistry{normMap: make(map[string]string)}
	index := make(map[string]int)

	for _, name := range names {
		name = strings.TrimSpace(name)
		norm := Normalize(name)
		if norm == "" {
			continue
		}
		key := compactKey(norm)

		if key == excludedBrandKey {
			if r.excluded == "" || preferCanonical(name, r.excluded) {
				r.excluded = name
			}
			continue
		}

		if i, ok := index[key]; ok {
			e := &r.entries[i]
			if preferCanonical(name, e.Canonical) {
				e.Canonical = name
				e.Normalized = norm
			}
			if !containsString(e.Variants, norm) {
				e.Variants = append(e.Variants, norm)
			}
			continue
		}

		index[key] = len(r.entries)
		r.entries = append(r.entries, BrandEntry{Canonical: name, Normalized: norm, Variants: []string{norm}})
	}

	for _, e := range r.entries {
		for _, v := range e.Variants {
			r.normMap[v] = e.Canonical
			r.byLength = append(r.byLength, BrandEntry{Canonical: e.Canonical, Normalized: v})
		}
		if len(e.Normalized) >= minFuzzyBrandLength || containsDigit(e.Normalized) {
			r.candidates = append(r.candidates, e)
		}
	}

	sort.SliceStable(r.byLength, func(i, j int) bool {
		return len(r.byLength[i].Normalized) > len(r.byLength[j].Normalized)
	})

	return r
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// preferCanonical reports whether candidate should replace current as the canonical spelling
func preferCanonical(candidate, current string) bool {
	candSpace := strings.Contains(candidate, " ")
	curSpace := strings.Contains(current, " ")
	if candSpace != curSpace {
		return candSpace
	}
	return utf8.RuneCountInString(candidate) > utf8.RuneCountInString(current)
}

// NormMap returns a copy of the normalized form -> canonical spelling mapping
func (r *BrandRegistry) NormMap() map[string]string {
	out := make(map[string]string, len(r.normMap))
	for k, v := range r.normMap {
		out[k] = v
	}
	return out
}

// Candidates returns the canonical spellings admitted to fuzzy search, in registry order
func (r *BrandRegistry) Candidates() []string {
	out := make([]string, len(r.candidates))
	for i, c := range r.candidates {
		out[i] = c.Canonical
	}
	return out
}

// Entries returns every registered brand in first-seen order
func (r *BrandRegistry) Entries() []BrandEntry {
	out := make([]BrandEntry, len(r.entries))
	for i, e := range r.entries {
		e.Variants = append([]string(nil), e.Variants...)
		out[i] = e
	}
	return out
}

// ExcludedBrand returns the spelling of the case-sensitive brand, if it was registered
func (r *BrandRegistry) ExcludedBrand() (string, bool) {
	return r.excluded, r.excluded != ""
}

// Len returns the number of brands available to exact matching
func (r *BrandRegistry) Len() int {
	return len(r.entries)
}

// Empty reports whether the registry can match nothing at all
func (r *BrandRegistry) Empty() bool {
	return r == nil || (len(r.entries) == 0 && r.excluded == "")
}
