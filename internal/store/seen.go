package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	seenKeyPrefix = "jobscout:seen_url:"

	// seenTTL keeps a URL hot for a week; after that the store's unique
	// constraint alone handles the (rare) resurfacing posting.
	seenTTL = 7 * 24 * time.Hour
)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// SeenURLCache remembers job URLs across runs so the pipeline can skip
// postings it already persisted, before hitting the database at all.
type SeenURLCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSeenURLCache(rdb *redis.Client) *SeenURLCache {
	return &SeenURLCache{rdb: rdb, ttl: seenTTL}
}

// Seen reports which of the given URLs were marked by a previous run.
func (c *SeenURLCache) Seen(ctx context.Context, urls []string) (map[string]bool, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	keys := make([]string, len(urls))
	for i, u := range urls {
		keys[i] = seenKeyPrefix + u
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("checking seen urls: %w", err)
	}

	out := make(map[string]bool, len(urls))
	for i, v := range vals {
		out[urls[i]] = v != nil
	}
	return out, nil
}

// Mark records URLs as handled. Errors are the caller's to absorb; a cold
// cache only costs a few conflicting inserts.
func (c *SeenURLCache) Mark(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for _, u := range urls {
		pipe.Set(ctx, seenKeyPrefix+u, 1, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("marking seen urls: %w", err)
	}
	return nil
}
