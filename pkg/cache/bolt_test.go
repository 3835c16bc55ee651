package cache

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"
)

func setupBoltStore(t *testing.T) *BoltStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ghstats.cache")
	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestBoltStore_CreatesParentDirectories(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ".ghstats", "cache.db")

	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore() in missing directory error: %v", err)
	}
	defer store.Close()

	key := testKey("/users/octocat")
	if err := store.Set(ctx, key, []byte(`{}`), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, err := store.Get(ctx, key); err != nil {
		t.Errorf("Get() error: %v", err)
	}
}

func TestBoltStore_GetAfterSet(t *testing.T) {
	ctx := context.Background()
	store := setupBoltStore(t)
	key := testKey("/users/octocat")
	payload := []byte(`{"login":"octocat","followers":42}`)

	if err := store.Set(ctx, key, payload, time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	entry, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(entry.Payload, payload) {
		t.Errorf("Get() payload = %s, want %s", entry.Payload, payload)
	}
}

func TestBoltStore_ExpiredEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := setupBoltStore(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	key := testKey("/users/octocat")
	if err := store.Set(ctx, key, []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() after expiry error = %v, want ErrMiss", err)
	}
}

func TestBoltStore_CorruptEntryDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	store := setupBoltStore(t)
	key := testKey("/users/octocat")

	// Write garbage directly under the key.
	if err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key.String()), []byte("not json"))
	}); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	if _, err := store.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() on corrupt entry error = %v, want ErrMiss", err)
	}

	// The corrupt entry must have been dropped.
	var remaining []byte
	_ = store.db.View(func(tx *bbolt.Tx) error {
		remaining = tx.Bucket(boltBucket).Get([]byte(key.String()))
		return nil
	})
	if remaining != nil {
		t.Error("corrupt entry was not evicted")
	}
}

func TestBoltStore_EvictionSparesConcurrentSet(t *testing.T) {
	ctx := context.Background()
	store := setupBoltStore(t)
	key := testKey("/users/octocat")
	k := []byte(key.String())

	if err := store.Set(ctx, key, []byte(`stale`), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	var observed []byte
	_ = store.db.View(func(tx *bbolt.Tx) error {
		observed = append([]byte(nil), tx.Bucket(boltBucket).Get(k)...)
		return nil
	})

	// A writer replaces the entry between a reader observing it expired
	// and the eviction running.
	if err := store.Set(ctx, key, []byte(`fresh`), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := store.deleteIfUnchanged(k, observed); err != nil {
		t.Fatalf("deleteIfUnchanged() error: %v", err)
	}

	entry, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() after eviction error: %v", err)
	}
	if string(entry.Payload) != "fresh" {
		t.Errorf("Get() payload = %s, want fresh", entry.Payload)
	}
}

func TestBoltStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := setupBoltStore(t)

	for _, endpoint := range []string{"/users/a", "/users/b"} {
		if err := store.Set(ctx, testKey(endpoint), []byte(`{}`), time.Hour); err != nil {
			t.Fatalf("Set(%s) error: %v", endpoint, err)
		}
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	for _, endpoint := range []string{"/users/a", "/users/b"} {
		if _, err := store.Get(ctx, testKey(endpoint)); !errors.Is(err, ErrMiss) {
			t.Errorf("Get(%s) after Clear error = %v, want ErrMiss", endpoint, err)
		}
	}
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ghstats.cache")

	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore() error: %v", err)
	}
	key := testKey("/users/octocat")
	if err := store.Set(ctx, key, []byte(`persisted`), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	entry, err := reopened.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if string(entry.Payload) != "persisted" {
		t.Errorf("Get() payload = %s, want persisted", entry.Payload)
	}
}
