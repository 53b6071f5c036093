package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNoResults is returned when the provider page carries no extractable listings
	ErrNoResults = errors.New("no listings found")

	// ErrSearchAPIFailure is returned when a SearchAPI request fails
	ErrSearchAPIFailure = errors.New("SearchAPI request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrRegistryUnavailable is returned when no brand list could be loaded
	ErrRegistryUnavailable = errors.New("brand registry unavailable")

	// ErrAuditUnavailable is returned when the unmatched-title store cannot be written
	ErrAuditUnavailable = errors.New("unmatched audit store unavailable")
)
