package domain

// SearchQuery is one page request against the listing provider.
type SearchQuery struct {
	Keyword      string
	Page         int
	AmazonDomain string
	Language     string
	Filter       string // provider "rh" refinement, optional
}

// SearchRequest asks for a full multi-page search run.
type SearchRequest struct {
	Keyword      string `json:"keyword" binding:"required"`
	Pages        int    `json:"pages,omitempty"`
	AmazonDomain string `json:"amazonDomain,omitempty"`
	Language     string `json:"language,omitempty"`
	Filter       string `json:"filter,omitempty"`
}

// SearchResult is the decorated output of a search run.
type SearchResult struct {
	Keyword     string          `json:"keyword"`
	Pages       int             `json:"pages"` // pages that returned results
	TotalRaw    int             `json:"totalRaw"`
	TotalUnique int             `json:"totalUnique"`
	Unmatched   int             `json:"unmatched"`
	Listings    []ScoredListing `json:"listings"`
}
