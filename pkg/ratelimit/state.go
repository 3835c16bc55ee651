// Package ratelimit tracks the GitHub API request budget and gates requests.
// It monitors the X-RateLimit-Remaining and X-RateLimit-Reset headers so the
// client waits for the window reset instead of collecting 403 responses.
package ratelimit

import (
	"time"
)

// GitHub rate limit headers.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Default request budgets per hour, by authentication mode.
// Used until the first real response corrects the estimate.
const (
	DefaultAnonymousLimit     = 60
	DefaultAuthenticatedLimit = 5000
)

// Mode identifies which request budget applies. GitHub grants separate
// quotas to anonymous and token-authenticated sessions.
type Mode string

const (
	// ModeAnonymous is the budget for unauthenticated requests.
	ModeAnonymous Mode = "anonymous"

	// ModeToken is the budget for token-authenticated requests.
	ModeToken Mode = "token"
)

// State represents the current rate limit window for one mode.
type State struct {
	// Limit is the total number of requests permitted per window.
	Limit int `json:"limit"`

	// Remaining is the local estimate of requests left in the window.
	// Decremented optimistically on admission, corrected from the
	// X-RateLimit-Remaining header after every real response.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets, from the X-RateLimit-Reset header.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last corrected from real headers.
	// Zero until the first real response has been observed.
	LastUpdate time.Time `json:"last_update"`
}

// Exhausted returns true if the budget is spent and the window has not reset.
func (s *State) Exhausted(now time.Time) bool {
	return s.Remaining <= 0 && now.Before(s.ResetAt)
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset(now time.Time) time.Duration {
	d := s.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// IsStale returns true if the state has not been corrected from real
// headers within maxAge.
func (s *State) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LastUpdate) > maxAge
}
