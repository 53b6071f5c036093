// Package audit persists titles that could not be assigned a brand, for later curation
// of the brand list.
package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/shelflens/backend/internal/domain"
)

var fileHeader = []string{"title", "best_candidate", "best_score", "recorded_at"}

// FileStore appends unmatched titles to a CSV file shared across runs
type FileStore struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// OpenFileStore opens (or creates) the CSV at path, writing the header when the file is new
func OpenFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
	}

	s := &FileStore{file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := s.writeRow(fileHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

// Append writes one record and flushes it to disk
func (s *FileStore) Append(_ context.Context, record domain.UnmatchedTitle) error {
	score := ""
	if record.BestScore != nil {
		score = strconv.FormatFloat(*record.BestScore, 'f', 1, 64)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return fmt.Errorf("%w: store closed", domain.ErrAuditUnavailable)
	}
	return s.writeRow([]string{record.Title, record.BestCandidate, score, record.RecordedAt})
}

func (s *FileStore) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditUnavailable, err)
	}
	return nil
}

// Close flushes and closes the file
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	s.w.Flush()
	err := s.file.Close()
	s.file = nil
	return err
}

var _ domain.UnmatchedStore = (*FileStore)(nil)
