package domain

// MatchMethod records how a brand decision was reached.
type MatchMethod string

// Match methods, in matcher precedence order.
const (
	MethodSpecialCase      MatchMethod = "special-case-ou"
	MethodTitleExact       MatchMethod = "title-exact"
	MethodRawSpecialCase   MatchMethod = "raw-special-case-ou"
	MethodRawExact         MatchMethod = "raw-exact"
	MethodRawFuzzy         MatchMethod = "raw-fuzzy"
	MethodTitleFuzzy       MatchMethod = "title-fuzzy"
	MethodNoMatch          MatchMethod = "no-match"
	MethodFuzzyUnavailable MatchMethod = "fuzzy-unavailable"
	MethodNoRegistry       MatchMethod = "no-registry"
)

// MatchDecision is the outcome of identifying a listing's brand.
// Brand and Score are either both set or both nil.
type MatchDecision struct {
	Brand  *string     `json:"brand"`
	Score  *float64    `json:"score"` // 0-100
	Method MatchMethod `json:"method"`
}

// Matched reports whether a brand was identified.
func (d MatchDecision) Matched() bool {
	return d.Brand != nil
}

// BrandName returns the matched brand or "" when there is none.
func (d MatchDecision) BrandName() string {
	if d.Brand == nil {
		return ""
	}
	return *d.Brand
}

// UnmatchedTitle is an audit record for a title no brand could be confidently assigned to.
type UnmatchedTitle struct {
	Title         string   `json:"title"`
	BestCandidate string   `json:"bestCandidate,omitempty"`
	BestScore     *float64 `json:"bestScore,omitempty"`
	RecordedAt    string   `json:"recordedAt"`
}
