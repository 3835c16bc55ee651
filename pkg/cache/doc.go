// Package cache provides keyed caching of GitHub API responses with
// expiration metadata.
//
// Three backends implement the Store interface:
//
//   - MemoryStore: process-local map, used for one-shot runs and tests
//   - BoltStore: file-backed bbolt database, the CLI default (survives runs,
//     independently inspectable and clearable)
//   - RedisStore: shared cache for server deployments
//
// All backends share the same contract: an entry is valid iff
// now < fetched_at + ttl. Expired entries are treated as absent and lazily
// evicted on the next lookup. A corrupt or unreadable entry is reported as
// a miss, never as an error; corruption degrades to a network refetch.
//
// # Basic Usage
//
//	store := cache.NewMemoryStore()
//
//	key := cache.Key{
//		Endpoint: "/users/octocat/repos",
//		Query:    url.Values{"per_page": []string{"100"}},
//		Mode:     "token",
//	}
//
//	entry, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrMiss) {
//		// fetch from the API, then:
//		_ = store.Set(ctx, key, payload, time.Hour)
//	}
//
// Keys serialize deterministically from the full request tuple (endpoint,
// query parameters, auth mode) so differently filtered requests for the
// same account never collide.
package cache
