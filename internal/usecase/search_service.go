package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"github.com/shelflens/backend/internal/domain"
	"github.com/shelflens/backend/internal/infrastructure/searchapi"
	"github.com/shelflens/backend/internal/metrics"
)

const (
	defaultPages    = 3
	maxPages        = 20
	defaultCacheTTL = 6 * time.Hour
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL           time.Duration
	Pages              int
	AmazonDomain       string
	Language           string
	Source             string
	Workers            int
	EnableDebugLogging bool
}

// SearchService runs a keyword through the provider page by page, then brand-matches
// and scores the collected listings.
// Flow: preprocess -> (cache | fetch) per page -> extract -> dedup -> match -> score
type SearchService struct {
	cache        domain.CacheRepository
	client       domain.SearchClient
	matcher      *BrandMatcher
	scorer       *RelevanceScorer
	store        domain.UnmatchedStore
	preprocessor *KeywordPreprocessor
	config       SearchServiceConfig
}

// NewSearchService creates a new search service. cache and store may be nil.
func NewSearchService(
	cache domain.CacheRepository,
	client domain.SearchClient,
	matcher *BrandMatcher,
	store domain.UnmatchedStore,
	config SearchServiceConfig,
) *SearchService {
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaultCacheTTL
	}
	if config.Pages <= 0 {
		config.Pages = defaultPages
	}
	if config.Source == "" {
		config.Source = searchapi.SourceAmazonSearch
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if matcher == nil {
		matcher = NewBrandMatcher(nil, MatchConfig{})
	}

	return &SearchService{
		cache:        cache,
		client:       client,
		matcher:      matcher,
		scorer:       NewRelevanceScorer(),
		store:        store,
		preprocessor: NewKeywordPreprocessor(config.EnableDebugLogging),
		config:       config,
	}
}

// Search runs a full multi-page search. Pages are fetched in order until one fails or
// comes back empty; listings gathered before that are still returned. An error is only
// returned when nothing at all could be collected.
func (s *SearchService) Search(ctx context.Context, request *domain.SearchRequest) (*domain.SearchResult, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}
	keyword := s.preprocessor.Preprocess(request.Keyword)
	if keyword == "" {
		return nil, domain.ErrInvalidRequest
	}

	pages := request.Pages
	if pages <= 0 {
		pages = s.config.Pages
	}
	if pages > maxPages {
		return nil, fmt.Errorf("%w: at most %d pages", domain.ErrInvalidRequest, maxPages)
	}

	query := domain.SearchQuery{
		Keyword:      keyword,
		AmazonDomain: firstNonEmpty(request.AmazonDomain, s.config.AmazonDomain),
		Language:     firstNonEmpty(request.Language, s.config.Language),
		Filter:       request.Filter,
	}

	entry := log.WithFields(log.Fields{"component": "search", "keyword": keyword})

	var (
		all       []domain.Listing
		fetchErr  error
		pagesDone int
	)
	for page := 1; page <= pages; page++ {
		query.Page = page
		resp, err := s.fetchPage(ctx, query)
		if err != nil {
			entry.WithError(err).WithField("page", page).Warn("page failed, stopping")
			fetchErr = err
			break
		}

		listings := searchapi.ExtractListings(resp, keyword, s.config.Source)
		if len(listings) == 0 {
			entry.WithFields(log.Fields{
				"page":   page,
				"schema": searchapi.SchemaSummary(resp),
			}).Info("no listings extracted, stopping")
			break
		}

		// global positions across pages
		base := len(all)
		for i := range listings {
			pos := base + i + 1
			listings[i].Position = &pos
		}
		all = append(all, listings...)
		pagesDone++

		entry.WithFields(log.Fields{"page": page, "count": len(listings)}).Info("page extracted")
	}

	if len(all) == 0 {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, domain.ErrNoResults
	}

	unique := Deduplicate(all)

	recorder := NewUnmatchedRecorder(ctx, s.store)
	defer recorder.Close()

	scored, err := s.matchAll(ctx, unique, recorder)
	if err != nil {
		return nil, err
	}
	scored = s.scorer.Score(scored)

	entry.WithFields(log.Fields{
		"raw":       len(all),
		"unique":    len(unique),
		"unmatched": recorder.Count(),
	}).Info("search complete")

	return &domain.SearchResult{
		Keyword:     keyword,
		Pages:       pagesDone,
		TotalRaw:    len(all),
		TotalUnique: len(unique),
		Unmatched:   recorder.Count(),
		Listings:    scored,
	}, nil
}

// MatchAndScore decorates already extracted listings without fetching anything.
// Listing order and positions are kept as given.
func (s *SearchService) MatchAndScore(ctx context.Context, listings []domain.Listing) ([]domain.ScoredListing, error) {
	recorder := NewUnmatchedRecorder(ctx, s.store)
	defer recorder.Close()

	scored, err := s.matchAll(ctx, listings, recorder)
	if err != nil {
		return nil, err
	}
	return s.scorer.Score(scored), nil
}

// Matcher exposes the service's brand matcher
func (s *SearchService) Matcher() *BrandMatcher {
	return s.matcher
}

// matchAll brand-matches every listing in parallel; the registry is read-only and the
// recorder serializes its own state
func (s *SearchService) matchAll(ctx context.Context, listings []domain.Listing, sink domain.UnmatchedTitleSink) ([]domain.ScoredListing, error) {
	scored := make([]domain.ScoredListing, len(listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for i := range listings {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l := listings[i]
			eval := s.matcher.Evaluate(l.Title, l.Seller)
			metrics.BrandDecisions.WithLabelValues(string(eval.Decision.Method)).Inc()

			if shouldAudit(eval.Decision.Method) {
				sink.Record(l.Title, eval.BestCandidate, eval.BestScore)
			}

			scored[i] = domain.ScoredListing{Listing: l, Brand: eval.Decision}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// shouldAudit reports whether a decision leaves a title worth curating. Runs without a
// brand list would flag every title, so those are not recorded.
func shouldAudit(method domain.MatchMethod) bool {
	return method == domain.MethodNoMatch || method == domain.MethodFuzzyUnavailable
}

// fetchPage returns one provider page, from cache when possible
func (s *SearchService) fetchPage(ctx context.Context, query domain.SearchQuery) (map[string]interface{}, error) {
	key := s.generateCacheKey(query)

	if resp, ok := s.getFromCache(ctx, key); ok {
		return resp, nil
	}

	if s.client == nil {
		return nil, fmt.Errorf("%w: no search client configured", domain.ErrSearchAPIFailure)
	}
	resp, err := s.client.SearchListings(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrSearchAPIFailure) || errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrInvalidRequest) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.config.CacheTTL); err != nil {
			log.WithError(err).WithField("key", key).Warn("failed to cache page")
		}
	}
	return resp, nil
}

// generateCacheKey builds "search:{domain}:{language}:{keyword}:{page}", with the filter
// appended when one is set
func (s *SearchService) generateCacheKey(query domain.SearchQuery) string {
	parts := []string{
		"search",
		query.AmazonDomain,
		query.Language,
		CacheKeyPart(query.Keyword),
		strconv.Itoa(query.Page),
	}
	if query.Filter != "" {
		parts = append(parts, CacheKeyPart(query.Filter))
	}
	return strings.Join(parts, ":")
}

func (s *SearchService) getFromCache(ctx context.Context, key string) (map[string]interface{}, bool) {
	if s.cache == nil {
		return nil, false
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.WithError(err).WithField("key", key).Warn("cache lookup failed")
		}
		return nil, false
	}
	resp, ok := value.(map[string]interface{})
	return resp, ok
}

// Deduplicate keeps the first occurrence of each listing. Listings are keyed by
// identifier when any listing carries one; otherwise, and for listings missing it,
// by (title, seller, price).
func Deduplicate(listings []domain.Listing) []domain.Listing {
	byIdentifier := false
	for _, l := range listings {
		if l.Identifier != "" {
			byIdentifier = true
			break
		}
	}

	seen := make(map[string]struct{}, len(listings))
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		var key string
		if byIdentifier && l.Identifier != "" {
			key = "id\x00" + l.Identifier
		} else {
			price := ""
			if l.Price != nil {
				price = strconv.FormatFloat(*l.Price, 'f', -1, 64)
			}
			key = "tsp\x00" + l.Title + "\x00" + l.Seller + "\x00" + price
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
