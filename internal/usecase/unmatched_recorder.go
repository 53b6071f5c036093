package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/shelflens/backend/internal/domain"
	"github.com/shelflens/backend/internal/metrics"
)

// UnmatchedRecorder is the per-run UnmatchedTitleSink. It forwards each distinct title
// (trimmed, case-insensitive) to the store once per run. Create one at the start of a
// run and Close it at the end; it is safe for concurrent use.
type UnmatchedRecorder struct {
	ctx    context.Context
	store  domain.UnmatchedStore
	mu     sync.Mutex
	seen   map[string]struct{}
	closed bool
}

// NewUnmatchedRecorder starts a recording session backed by store. A nil store keeps
// only the in-memory dedup set.
func NewUnmatchedRecorder(ctx context.Context, store domain.UnmatchedStore) *UnmatchedRecorder {
	return &UnmatchedRecorder{
		ctx:   ctx,
		store: store,
		seen:  make(map[string]struct{}),
	}
}

// Record queues title for curation; blank titles and repeats are ignored
func (r *UnmatchedRecorder) Record(title, bestCandidate string, bestScore *float64) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return
	}
	key := strings.ToLower(trimmed)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	metrics.UnmatchedTitles.Inc()

	if r.store == nil {
		return
	}

	record := domain.UnmatchedTitle{
		Title:         trimmed,
		BestCandidate: bestCandidate,
		BestScore:     bestScore,
		RecordedAt:    time.Now().Format(time.RFC3339),
	}
	if err := r.store.Append(r.ctx, record); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"component": "audit",
			"title":     trimmed,
		}).Warn("failed to append unmatched title")
	}
}

// Count returns how many distinct titles were recorded in this run
func (r *UnmatchedRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// Close ends the session; later Record calls are dropped. The store stays open.
func (r *UnmatchedRecorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

var _ domain.UnmatchedTitleSink = (*UnmatchedRecorder)(nil)
