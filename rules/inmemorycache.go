package rules

import (
	"context"
	"slices"
	"sync"
	"time"
)

type cachedResults struct {
	results  []Result
	cachedAt time.Time
}

// InMemoryResultsCache is a simple in-memory implementation of ResultsCache
// Thread-safe for concurrent access
type InMemoryResultsCache struct {
	entries map[string]cachedResults
	config  CacheConfig
	now     func() time.Time
	mu      sync.RWMutex
}

// NewInMemoryResultsCache creates a new in-memory results cache
func NewInMemoryResultsCache(config CacheConfig) *InMemoryResultsCache {
	return &InMemoryResultsCache{
		entries: make(map[string]cachedResults),
		config:  config,
		now:     time.Now,
	}
}

// Get retrieves the cached results of regNo
func (c *InMemoryResultsCache) Get(_ context.Context, regNo string) ([]Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[regNo]
	if !ok {
		return nil, false, nil
	}

	// Check TTL if configured
	if c.config.TTL > 0 && c.now().Sub(entry.cachedAt) > c.config.TTL {
		return nil, false, nil
	}

	// Return copy to prevent external modifications
	return slices.Clone(entry.results), true, nil
}

// Set stores the results of regNo
func (c *InMemoryResultsCache) Set(_ context.Context, regNo string, results []Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Store copy to prevent external modifications
	c.entries[regNo] = cachedResults{
		results:  slices.Clone(results),
		cachedAt: c.now(),
	}
	return nil
}

// Invalidate drops the results of regNo
func (c *InMemoryResultsCache) Invalidate(_ context.Context, regNo string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, regNo)
	return nil
}
