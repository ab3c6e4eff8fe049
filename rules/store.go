package rules

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// ResultStore manages the official results of dogs
type ResultStore interface {
	// Add a new result
	Add(ctx context.Context, result Result) error

	// ListByDog returns the results of a dog ordered by date
	ListByDog(ctx context.Context, regNo string) ([]Result, error)

	// Delete a result of a dog
	Delete(ctx context.Context, regNo, id string) error
}

// InMemoryResultStore implements ResultStore using an in-memory map
// Thread-safe with RWMutex
type InMemoryResultStore struct {
	results map[string][]Result // regNo -> results
	mu      sync.RWMutex
}

// NewInMemoryResultStore creates a new in-memory result store
func NewInMemoryResultStore() *InMemoryResultStore {
	return &InMemoryResultStore{
		results: make(map[string][]Result),
	}
}

// Add adds a new result to the store
// Result IDs are unique per dog
func (s *InMemoryResultStore) Add(_ context.Context, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.results[result.RegNo]
	if slices.ContainsFunc(existing, func(r Result) bool { return r.ID == result.ID }) {
		return fmt.Errorf("result %s of %s: %w", result.ID, result.RegNo, ErrResultExists)
	}

	result.Official = true
	s.results[result.RegNo] = append(existing, result)
	return nil
}

// ListByDog returns a copy of the results of regNo
func (s *InMemoryResultStore) ListByDog(_ context.Context, regNo string) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := slices.Clone(s.results[regNo])
	slices.SortStableFunc(results, func(a, b Result) int { return a.Date.Compare(b.Date) })
	return results, nil
}

// Delete removes a result from the store
func (s *InMemoryResultStore) Delete(_ context.Context, regNo, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.results[regNo]
	i := slices.IndexFunc(existing, func(r Result) bool { return r.ID == id })
	if i < 0 {
		return fmt.Errorf("result %s of %s: %w", id, regNo, ErrResultNotFound)
	}

	s.results[regNo] = slices.Delete(slices.Clone(existing), i, i+1)
	return nil
}
