package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// BrandDecisions counts brand decisions by match method.
	BrandDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shelflens",
		Subsystem: "match",
		Name:      "brand_decisions_total",
		Help:      "Brand decisions made by the matcher, labeled by method.",
	}, []string{"method"})

	// UnmatchedTitles counts distinct titles forwarded for curation.
	UnmatchedTitles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shelflens",
		Subsystem: "audit",
		Name:      "unmatched_titles_total",
		Help:      "Distinct unmatched titles recorded (deduplicated per run).",
	})

	// SearchAPIRequests counts SearchAPI page requests by outcome.
	SearchAPIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shelflens",
		Subsystem: "searchapi",
		Name:      "requests_total",
		Help:      "SearchAPI requests, labeled by result (ok, error, rate_limited, decode_error, http_<status>).",
	}, []string{"result"})

	// ScoredBatchSize observes how many listings each scoring batch carried.
	ScoredBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shelflens",
		Subsystem: "score",
		Name:      "batch_size",
		Help:      "Listings per relevance scoring batch.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
)

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			BrandDecisions,
			UnmatchedTitles,
			SearchAPIRequests,
			ScoredBatchSize,
		)
	})
}
