package domain

// RawListing is a single provider result object exactly as decoded from JSON.
// Fields are untyped and any of them may be missing.
type RawListing map[string]any

// Listing is the typed view of a RawListing extracted from a search results page.
// Optional numeric fields are nil when the provider omitted them or they could not be parsed.
type Listing struct {
	Source        string   `json:"source"`
	Keyword       string   `json:"keyword"`
	Title         string   `json:"title"`
	Price         *float64 `json:"price,omitempty"`
	PriceRaw      string   `json:"priceRaw,omitempty"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Seller        string   `json:"seller,omitempty"` // also used as the brand hint
	Identifier    string   `json:"identifier,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	ReviewCount   *int     `json:"reviewCount,omitempty"`
	Sponsored     bool     `json:"sponsored"`
	Position      *int     `json:"position,omitempty"` // 1-based, smaller is more prominent
	Link          string   `json:"link,omitempty"`
}

// Scores holds the batch-level relevance decoration of a listing.
// All sub-scores are in [0,1]; nil means the inputs were not available.
type Scores struct {
	PriceOutlier        bool     `json:"priceOutlier"`
	PriceIndex          *float64 `json:"priceIndex"`
	DiscountFraction    float64  `json:"discountFraction"`
	PriceScore          *float64 `json:"priceScore"`
	PromoScore          *float64 `json:"promoScore"`
	AttractivenessScore *float64 `json:"attractivenessScore"`
	VisibilityScore     *float64 `json:"visibilityScore"`
	QualityScore        *float64 `json:"qualityScore"`
	RelevanceScore      *float64 `json:"relevanceScore"`
}

// ScoredListing is a Listing decorated with its brand decision and relevance scores.
type ScoredListing struct {
	Listing
	Brand MatchDecision `json:"brand"`
	Scores
}
