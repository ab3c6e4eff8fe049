package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const resultsKeyPrefix = "qualification:results:"

// RedisResultsCache is a Redis-backed implementation of ResultsCache.
// Results are stored as JSON and expire after the configured TTL.
type RedisResultsCache struct {
	client *redis.Client
	config CacheConfig
}

// NewRedisResultsCache constructs a Redis-backed results cache
func NewRedisResultsCache(client *redis.Client, config CacheConfig) *RedisResultsCache {
	return &RedisResultsCache{
		client: client,
		config: config,
	}
}

// Get retrieves the cached results of regNo
func (c *RedisResultsCache) Get(ctx context.Context, regNo string) ([]Result, bool, error) {
	data, err := c.client.Get(ctx, resultsKeyPrefix+regNo).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached results: %w", err)
	}

	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached results: %w", err)
	}
	return results, true, nil
}

// Set stores the results of regNo with the configured TTL
func (c *RedisResultsCache) Set(ctx context.Context, regNo string, results []Result) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if err := c.client.Set(ctx, resultsKeyPrefix+regNo, data, c.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to cache results: %w", err)
	}
	return nil
}

// Invalidate drops the results of regNo
func (c *RedisResultsCache) Invalidate(ctx context.Context, regNo string) error {
	if err := c.client.Del(ctx, resultsKeyPrefix+regNo).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached results: %w", err)
	}
	return nil
}
