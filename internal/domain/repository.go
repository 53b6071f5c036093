package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SearchClient fetches one page of raw provider results
type SearchClient interface {
	SearchListings(ctx context.Context, query SearchQuery) (map[string]interface{}, error)
}

// UnmatchedStore durably appends unmatched-title audit records
type UnmatchedStore interface {
	Append(ctx context.Context, record UnmatchedTitle) error
	Close() error
}

// UnmatchedTitleSink receives titles with no confident brand match for curation.
// Implementations record each title at most once per run.
type UnmatchedTitleSink interface {
	Record(title, bestCandidate string, bestScore *float64)
}
