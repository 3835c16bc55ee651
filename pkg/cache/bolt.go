package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// boltBucket holds cached responses, key string -> Entry JSON.
var boltBucket = []byte("responses")

// BoltStore is a file-backed Store using bbolt. It is the CLI default:
// entries survive between runs, and the file can be inspected or removed
// independently of the tool.
type BoltStore struct {
	db *bbolt.DB

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewBoltStore opens (or creates) the cache database at path, creating
// parent directories as needed.
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get retrieves a valid cache entry, or ErrMiss. Corrupt entries are
// deleted and reported as a miss.
func (s *BoltStore) Get(_ context.Context, key Key) (*Entry, error) {
	k := []byte(key.String())

	var raw []byte
	if err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(boltBucket).Get(k); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		CacheErrors.WithLabelValues("bolt", "get").Inc()
		return nil, ErrMiss
	}

	if raw == nil {
		CacheMisses.WithLabelValues("bolt").Inc()
		return nil, ErrMiss
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt entry: drop it and refetch.
		CacheErrors.WithLabelValues("bolt", "get").Inc()
		_ = s.deleteIfUnchanged(k, raw)
		CacheMisses.WithLabelValues("bolt").Inc()
		return nil, ErrMiss
	}

	if !entry.Valid(s.now()) {
		_ = s.deleteIfUnchanged(k, raw)
		CacheMisses.WithLabelValues("bolt").Inc()
		return nil, ErrMiss
	}

	CacheHits.WithLabelValues("bolt").Inc()
	return &entry, nil
}

// Set stores a payload under key, overwriting any prior entry.
func (s *BoltStore) Set(_ context.Context, key Key, payload []byte, ttl time.Duration) error {
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
		CacheErrors.WithLabelValues("bolt", "set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key.String()), raw)
	}); err != nil {
		CacheErrors.WithLabelValues("bolt", "set").Inc()
		return fmt.Errorf("store cache entry: %w", err)
	}

	return nil
}

// Invalidate removes the entry for key, if present.
func (s *BoltStore) Invalidate(_ context.Context, key Key) error {
	if err := s.delete([]byte(key.String())); err != nil {
		CacheErrors.WithLabelValues("bolt", "invalidate").Inc()
		return fmt.Errorf("invalidate cache entry: %w", err)
	}
	return nil
}

// Clear removes all entries by dropping and recreating the bucket.
func (s *BoltStore) Clear(_ context.Context) error {
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(boltBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(boltBucket)
		return err
	}); err != nil {
		CacheErrors.WithLabelValues("bolt", "clear").Inc()
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

func (s *BoltStore) delete(k []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(k)
	})
}

// deleteIfUnchanged evicts k only while its value still matches the
// observed bytes, so a concurrent fresh Set for the same key survives.
func (s *BoltStore) deleteIfUnchanged(k, observed []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if v := b.Get(k); v == nil || !bytes.Equal(v, observed) {
			return nil
		}
		return b.Delete(k)
	})
}
