package memory

import (
	"context"
	"slices"
	"sync"

	"fiado/internal/core"
)

// Store keeps records in process memory. Useful for tests and local runs.
type Store struct {
	mu    sync.Mutex
	items []core.Record
}

func New(seed ...core.Record) *Store {
	return &Store{items: slices.Clone(seed)}
}

// Append validates and stores the record.
func (s *Store) Append(_ context.Context, r core.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
	return nil
}

// All returns a copy of the history so callers cannot alter it.
func (s *Store) All(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items), nil
}

// Len reports how many records are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
