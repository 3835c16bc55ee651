package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss indicates the requested key is absent, expired, or unreadable.
var ErrMiss = errors.New("cache miss")

// Store is the caching contract used by the account resolver.
//
// Get returns ErrMiss for absent, expired, and corrupt entries; callers
// treat all three the same way and refetch. Set overwrites any prior entry
// for the same key (last write wins). Concurrent use is safe.
type Store interface {
	// Get retrieves a valid cache entry, or ErrMiss.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Set stores a payload under key with the given lifetime.
	Set(ctx context.Context, key Key, payload []byte, ttl time.Duration) error

	// Invalidate removes the entry for key, if present.
	Invalidate(ctx context.Context, key Key) error

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
