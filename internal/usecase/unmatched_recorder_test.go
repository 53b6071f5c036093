package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestUnmatchedRecorder_DedupPerRun(t *testing.T) {
	store := &MockUnmatchedStore{}
	r := NewUnmatchedRecorder(context.Background(), store)

	score := 61.5
	r.Record("Balde 10L", "Sanremo", &score)
	r.Record("  balde 10l ", "", nil)
	r.Record("BALDE 10L", "", nil)
	r.Record("Rodo 60cm", "", nil)

	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	titles := store.titles()
	if len(titles) != 2 || titles[0] != "Balde 10L" || titles[1] != "Rodo 60cm" {
		t.Errorf("stored titles = %v", titles)
	}
	if got := store.records[0]; got.BestCandidate != "Sanremo" || got.BestScore == nil || *got.BestScore != 61.5 {
		t.Errorf("first record = %+v", got)
	}
	if store.records[0].RecordedAt == "" {
		t.Error("RecordedAt should be set")
	}
}

func TestUnmatchedRecorder_NewRunRecordsAgain(t *testing.T) {
	store := &MockUnmatchedStore{}

	first := NewUnmatchedRecorder(context.Background(), store)
	first.Record("Balde 10L", "", nil)
	first.Close()

	second := NewUnmatchedRecorder(context.Background(), store)
	second.Record("Balde 10L", "", nil)

	if got := len(store.titles()); got != 2 {
		t.Errorf("stored %d records across two runs, want 2", got)
	}
}

func TestUnmatchedRecorder_BlankTitles(t *testing.T) {
	store := &MockUnmatchedStore{}
	r := NewUnmatchedRecorder(context.Background(), store)

	r.Record("", "", nil)
	r.Record(" \t ", "", nil)

	if r.Count() != 0 || len(store.titles()) != 0 {
		t.Errorf("blank titles recorded: count %d, stored %v", r.Count(), store.titles())
	}
}

func TestUnmatchedRecorder_StoreErrorIsSwallowed(t *testing.T) {
	store := &MockUnmatchedStore{err: errors.New("disk full")}
	r := NewUnmatchedRecorder(context.Background(), store)

	r.Record("Balde 10L", "", nil)
	r.Record("Balde 10L", "", nil)

	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestUnmatchedRecorder_NilStore(t *testing.T) {
	r := NewUnmatchedRecorder(context.Background(), nil)
	r.Record("Balde 10L", "", nil)
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestUnmatchedRecorder_Close(t *testing.T) {
	store := &MockUnmatchedStore{}
	r := NewUnmatchedRecorder(context.Background(), store)

	r.Record("Balde 10L", "", nil)
	r.Close()
	r.Record("Rodo 60cm", "", nil)
	r.Close()

	if got := store.titles(); len(got) != 1 {
		t.Errorf("stored titles after Close = %v, want only the first", got)
	}
}

func TestUnmatchedRecorder_Concurrent(t *testing.T) {
	store := &MockUnmatchedStore{}
	r := NewUnmatchedRecorder(context.Background(), store)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Record(fmt.Sprintf("Titulo %d", i%10), "", nil)
		}(i)
	}
	wg.Wait()

	if r.Count() != 10 {
		t.Errorf("Count() = %d, want 10", r.Count())
	}
	if got := len(store.titles()); got != 10 {
		t.Errorf("stored %d records, want 10", got)
	}
}
