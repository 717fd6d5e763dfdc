// Package memory provides an in-process ResultStore for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/dictcrawler/internal/dict"
)

// ResultStore keeps records in a slice guarded by a mutex.
type ResultStore struct {
	mu      sync.RWMutex
	records []dict.Record
	failOn  map[dict.Word]error
}

// New returns an empty store, optionally seeded with existing records.
func New(seed ...dict.Record) *ResultStore {
	return &ResultStore{
		records: append([]dict.Record(nil), seed...),
		failOn:  make(map[dict.Word]error),
	}
}

// FailPersist makes every Persist for word return err.
func (s *ResultStore) FailPersist(word dict.Word, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[word] = err
}

// ListProcessedWords returns every distinct stored word.
func (s *ResultStore) ListProcessedWords(ctx context.Context) (map[dict.Word]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, &dict.StorageError{Op: "list", Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[dict.Word]struct{}, len(s.records))
	for _, r := range s.records {
		out[r.Word] = struct{}{}
	}
	return out, nil
}

// Persist appends record.
func (s *ResultStore) Persist(ctx context.Context, record dict.Record) error {
	if err := ctx.Err(); err != nil {
		return &dict.StorageError{Op: "persist", Word: record.Word, Err: err}
	}
	if record.Word == "" {
		return &dict.StorageError{Op: "persist", Err: fmt.Errorf("word is required")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failOn[record.Word]; ok {
		return &dict.StorageError{Op: "persist", Word: record.Word, Err: err}
	}
	s.records = append(s.records, record)
	return nil
}

// Records returns a copy of everything persisted, in insertion order.
func (s *ResultStore) Records() []dict.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dict.Record(nil), s.records...)
}

// Count returns how many rows exist for word.
func (s *ResultStore) Count(word dict.Word) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.records {
		if r.Word == word {
			n++
		}
	}
	return n
}

// Close is a no-op.
func (s *ResultStore) Close() error {
	return nil
}
