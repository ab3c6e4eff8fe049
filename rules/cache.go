package rules

import (
	"context"
	"time"
)

// ResultsCache provides an abstraction for caching the official results of dogs
// This allows swapping between in-memory and Redis implementations
type ResultsCache interface {
	// Get retrieves the cached results of a dog, ok is false on a miss or expiry
	Get(ctx context.Context, regNo string) (results []Result, ok bool, err error)

	// Set stores the results of a dog
	Set(ctx context.Context, regNo string, results []Result) error

	// Invalidate drops the results of a dog, forcing a reload on next Get
	Invalidate(ctx context.Context, regNo string) error
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL is the time-to-live for cached entries
	// Set to 0 for no expiration (manual invalidation only)
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults for result caching
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL: 5 * time.Minute,
	}
}
