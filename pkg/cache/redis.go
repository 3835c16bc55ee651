package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for server deployments where
// multiple processes share one cache. Redis expires keys on its own; the
// entry's own validity window is still checked on read so a clock skew
// between writer and Redis never surfaces stale data.
type RedisStore struct {
	client *redis.Client

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{client: client, now: time.Now}
}

// Get retrieves a valid cache entry, or ErrMiss.
func (s *RedisStore) Get(ctx context.Context, key Key) (*Entry, error) {
	raw, err := s.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			CacheErrors.WithLabelValues("redis", "get").Inc()
		}
		CacheMisses.WithLabelValues("redis").Inc()
		return nil, ErrMiss
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		CacheErrors.WithLabelValues("redis", "get").Inc()
		_ = s.client.Del(ctx, key.String()).Err()
		CacheMisses.WithLabelValues("redis").Inc()
		return nil, ErrMiss
	}

	if !entry.Valid(s.now()) {
		_ = s.client.Del(ctx, key.String()).Err()
		CacheMisses.WithLabelValues("redis").Inc()
		return nil, ErrMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Set stores a payload under key with Redis-side expiry matching the TTL.
func (s *RedisStore) Set(ctx context.Context, key Key, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	entry := Entry{
		Payload:   payload,
		FetchedAt: s.now(),
		TTL:       ttl,
	}

	raw, err := json.Marshal(&entry)
	if err != nil {
		CacheErrors.WithLabelValues("redis", "set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.client.Set(ctx, key.String(), raw, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("redis", "set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Invalidate removes the entry for key, if present.
func (s *RedisStore) Invalidate(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("redis", "invalidate").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes all entries under the ghstats prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, "ghstats:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			CacheErrors.WithLabelValues("redis", "clear").Inc()
			return fmt.Errorf("redis del %q: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("redis", "clear").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}
