package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shelflens/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS unmatched_titles (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	title_key      TEXT NOT NULL UNIQUE,
	title          TEXT NOT NULL,
	best_candidate TEXT,
	best_score     REAL,
	recorded_at    TEXT NOT NULL
);`

// SQLiteStore keeps unmatched titles in a SQLite table, deduplicated across runs
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens the database at path and creates the table if needed
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
	}

	// sqlite wants a single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", domain.ErrAuditUnavailable, err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append inserts record unless the same title (case-insensitive) is already stored
func (s *SQLiteStore) Append(ctx context.Context, record domain.UnmatchedTitle) error {
	var candidate sql.NullString
	if record.BestCandidate != "" {
		candidate = sql.NullString{String: record.BestCandidate, Valid: true}
	}
	var score sql.NullFloat64
	if record.BestScore != nil {
		score = sql.NullFloat64{Float64: *record.BestScore, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO unmatched_titles (title_key, title, best_candidate, best_score, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		strings.ToLower(strings.TrimSpace(record.Title)),
		record.Title,
		candidate,
		score,
		record.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
	}
	return nil
}

// List returns stored records in insertion order
func (s *SQLiteStore) List(ctx context.Context) ([]domain.UnmatchedTitle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, best_candidate, best_score, recorded_at
		FROM unmatched_titles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
	}
	defer rows.Close()

	var out []domain.UnmatchedTitle
	for rows.Next() {
		var (
			rec       domain.UnmatchedTitle
			candidate sql.NullString
			score     sql.NullFloat64
		)
		if err := rows.Scan(&rec.Title, &candidate, &score, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
		}
		rec.BestCandidate = candidate.String
		if score.Valid {
			v := score.Float64
			rec.BestScore = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ domain.UnmatchedStore = (*SQLiteStore)(nil)
