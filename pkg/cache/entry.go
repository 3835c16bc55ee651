package cache

import (
	"time"
)

// DefaultTTL is the fallback lifetime for cached responses when the caller
// does not specify one. Matches the remote data's useful freshness for
// profile and repository statistics.
const DefaultTTL = time.Hour

// Entry represents a cached API response.
type Entry struct {
	// Payload is the raw response body (JSON).
	Payload []byte `json:"payload"`

	// FetchedAt is when the response was retrieved from the network.
	FetchedAt time.Time `json:"fetched_at"`

	// TTL is how long past FetchedAt the entry stays valid.
	TTL time.Duration `json:"ttl"`
}

// Valid reports whether the entry is still usable at the given instant.
// An entry is valid iff now < fetched_at + ttl.
func (e *Entry) Valid(now time.Time) bool {
	return now.Before(e.FetchedAt.Add(e.TTL))
}

// ExpiresAt returns the instant the entry becomes stale.
func (e *Entry) ExpiresAt() time.Time {
	return e.FetchedAt.Add(e.TTL)
}

// Remaining returns the time until expiration at the given instant.
// Returns 0 if already expired.
func (e *Entry) Remaining(now time.Time) time.Duration {
	d := e.ExpiresAt().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
