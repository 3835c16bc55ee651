package cache

import (
	"testing"
	"time"
)

func TestEntry_Valid(t *testing.T) {
	fetched := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		ttl      time.Duration
		now      time.Time
		expected bool
	}{
		{
			name:     "well within ttl",
			ttl:      time.Hour,
			now:      fetched.Add(time.Minute),
			expected: true,
		},
		{
			name:     "exactly at expiry",
			ttl:      time.Hour,
			now:      fetched.Add(time.Hour),
			expected: false,
		},
		{
			name:     "past expiry",
			ttl:      time.Hour,
			now:      fetched.Add(2 * time.Hour),
			expected: false,
		},
		{
			name:     "just before expiry",
			ttl:      time.Hour,
			now:      fetched.Add(time.Hour - time.Nanosecond),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Entry{FetchedAt: fetched, TTL: tt.ttl}
			if got := e.Valid(tt.now); got != tt.expected {
				t.Errorf("Valid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEntry_Remaining(t *testing.T) {
	fetched := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := &Entry{FetchedAt: fetched, TTL: time.Hour}

	if got := e.Remaining(fetched.Add(30 * time.Minute)); got != 30*time.Minute {
		t.Errorf("Remaining() = %v, want 30m", got)
	}

	if got := e.Remaining(fetched.Add(2 * time.Hour)); got != 0 {
		t.Errorf("Remaining() after expiry = %v, want 0", got)
	}
}
