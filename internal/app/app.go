// Package app assembles the search pipeline from configuration. Both the HTTP server
// and the command line tool build their dependencies through it.
package app

import (
	"context"
	"errors"

	"github.com/apex/log"

	"github.com/shelflens/backend/config"
	"github.com/shelflens/backend/internal/domain"
	"github.com/shelflens/backend/internal/infrastructure/audit"
	"github.com/shelflens/backend/internal/infrastructure/brands"
	"github.com/shelflens/backend/internal/infrastructure/cache"
	"github.com/shelflens/backend/internal/infrastructure/searchapi"
	"github.com/shelflens/backend/internal/usecase"
)

const redisKeyPrefix = "shelflens:"

// App owns the long-lived collaborators of a search pipeline
type App struct {
	Config  *config.Config
	Service *usecase.SearchService

	closers []func() error
}

// New wires cache, SearchAPI client, brand registry, matcher and audit store into a
// SearchService. A missing brand list or an unwritable audit store degrades the run
// instead of failing it; an unreachable Redis falls back to the memory cache.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	a := &App{Config: cfg}

	pageCache := a.buildCache(ctx)

	client := searchapi.NewClient(searchapi.ClientConfig{
		APIKey:          cfg.SearchAPI.APIKey,
		BaseURL:         cfg.SearchAPI.BaseURL,
		Engine:          cfg.SearchAPI.Engine,
		Timeout:         cfg.SearchAPI.Timeout,
		RequestsPerHour: cfg.RateLimit.SearchAPI,
	})
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
	}

	matcher := NewMatcher(cfg.Matching)
	store := a.buildAuditStore()

	a.Service = usecase.NewSearchService(pageCache, client, matcher, store, usecase.SearchServiceConfig{
		CacheTTL:           cfg.Cache.TTL,
		Pages:              cfg.SearchAPI.Pages,
		AmazonDomain:       cfg.SearchAPI.AmazonDomain,
		Language:           cfg.SearchAPI.Language,
		EnableDebugLogging: cfg.Matching.Debug,
	})

	return a, nil
}

// NewMatcher loads the brand list named by cfg and builds a matcher over it. When no
// list can be read the matcher runs with an empty registry.
func NewMatcher(cfg config.MatchingConfig) *usecase.BrandMatcher {
	entry := log.WithField("component", "match")

	var names []string
	path, err := brands.Locate(cfg.BrandsFile)
	if err == nil {
		names, err = brands.Load(path)
	}
	if err != nil {
		entry.WithError(err).Warn("brand list unavailable, every listing will be tagged no-registry")
	}

	registry := usecase.BuildBrandRegistry(names)
	entry.WithFields(log.Fields{
		"path":   path,
		"brands": registry.Len(),
		"fuzzy":  cfg.EnableFuzzy,
	}).Info("brand registry loaded")

	var scorer usecase.SimilarityScorer = usecase.NoopScorer{}
	if cfg.EnableFuzzy {
		scorer = usecase.WeightedRatioScorer{}
	}

	return usecase.NewBrandMatcher(registry, usecase.MatchConfig{
		FuzzyThreshold:     cfg.FuzzyThreshold,
		Scorer:             scorer,
		EnableDebugLogging: cfg.Debug,
	})
}

func (a *App) buildCache(ctx context.Context) domain.CacheRepository {
	cfg := a.Config.Cache
	entry := log.WithFields(log.Fields{"component": "cache", "type": cfg.Type})

	if cfg.Type == "redis" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, redisKeyPrefix)
		if err == nil {
			a.closers = append(a.closers, rc.Close)
			entry.WithField("ttl", cfg.TTL).Info("page cache ready")
			return rc
		}
		entry.WithError(err).Warn("redis unavailable, falling back to memory cache")
	}

	mc := cache.NewMemoryCache(cache.DefaultCleanupInterval)
	a.closers = append(a.closers, mc.Close)
	entry.WithField("ttl", cfg.TTL).Info("page cache ready")
	return mc
}

func (a *App) buildAuditStore() domain.UnmatchedStore {
	cfg := a.Config.Audit
	entry := log.WithFields(log.Fields{"component": "audit", "type": cfg.Type, "path": cfg.Path})

	var (
		store domain.UnmatchedStore
		err   error
	)
	switch cfg.Type {
	case "sqlite":
		store, err = audit.OpenSQLiteStore(cfg.Path)
	default:
		store, err = audit.OpenFileStore(cfg.Path)
	}
	if err != nil {
		entry.WithError(err).Warn("unmatched titles will not be persisted")
		return nil
	}

	a.closers = append(a.closers, store.Close)
	return store
}

// Close releases the cache and audit store
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
