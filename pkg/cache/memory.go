package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store backed by a map. Expired entries
// are evicted lazily on lookup.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Get retrieves a valid cache entry, or ErrMiss.
func (s *MemoryStore) Get(_ context.Context, key Key) (*Entry, error) {
	k := key.String()

	s.mu.RLock()
	entry, ok := s.entries[k]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrMiss
	}

	if !entry.Valid(s.now()) {
		s.evictExpired(k, entry)
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	return entry, nil
}

// evictExpired removes the entry observed expired by a reader. A fresh
// Set may have replaced it since the read, so only the observed entry
// itself is evicted.
func (s *MemoryStore) evictExpired(k string, observed *Entry) {
	s.mu.Lock()
	if s.entries[k] == observed {
		delete(s.entries, k)
	}
	s.mu.Unlock()
}

// Set stores a payload under key, overwriting any prior entry.
func (s *MemoryStore) Set(_ context.Context, key Key, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	entry := &Entry{
		Payload:   append([]byte(nil), payload...),
		FetchedAt: s.now(),
		TTL:       ttl,
	}

	s.mu.Lock()
	s.entries[key.String()] = entry
	s.mu.Unlock()

	return nil
}

// Invalidate removes the entry for key, if present.
func (s *MemoryStore) Invalidate(_ context.Context, key Key) error {
	s.mu.Lock()
	delete(s.entries, key.String())
	s.mu.Unlock()
	return nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including not-yet-evicted
// expired ones.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
