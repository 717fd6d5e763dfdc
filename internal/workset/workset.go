// Package workset computes the words still to crawl and hands them out to
// workers one at a time.
package workset

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/dictcrawler/internal/dict"
)

// WorkSet is a destructively consumed set of words. It is safe for
// concurrent use; each word is returned by Pop exactly once.
type WorkSet struct {
	mu    sync.Mutex
	words []dict.Word
}

// Stats describes how a WorkSet was derived.
type Stats struct {
	// Input counts non-blank source lines, duplicates included.
	Input     int
	Processed int
	Pending   int
}

// New builds a WorkSet from words, dropping blanks and duplicates.
func New(words []dict.Word) *WorkSet {
	seen := make(map[dict.Word]struct{}, len(words))
	out := make([]dict.Word, 0, len(words))
	for _, w := range words {
		w, ok := dict.NormalizeWord(string(w))
		if !ok {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return &WorkSet{words: out}
}

// Compute returns the normalized source words minus every word already
// persisted. It reads the source and the store exactly once.
func Compute(ctx context.Context, source dict.WordSource, results dict.ResultStore) (*WorkSet, Stats, error) {
	raw, err := source.LoadAll(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load words: %w", err)
	}
	processed, err := results.ListProcessedWords(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("list processed words: %w", err)
	}

	input := 0
	pending := make([]dict.Word, 0, len(raw))
	for _, line := range raw {
		w, ok := dict.NormalizeWord(line)
		if !ok {
			continue
		}
		input++
		if _, done := processed[w]; done {
			continue
		}
		pending = append(pending, w)
	}
	set := New(pending)
	return set, Stats{Input: input, Processed: len(processed), Pending: set.Len()}, nil
}

// Pop removes and returns one word. ok is false once the set is empty.
func (s *WorkSet) Pop() (dict.Word, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.words)
	if n == 0 {
		return "", false
	}
	w := s.words[n-1]
	s.words = s.words[:n-1]
	return w, true
}

// Len returns the number of words not yet popped.
func (s *WorkSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.words)
}
