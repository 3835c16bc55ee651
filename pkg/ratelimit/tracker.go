package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ghstats_rate_limit_remaining",
		Help: "Requests remaining in the current GitHub rate limit window",
	}, []string{"mode"})

	rateLimitWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghstats_rate_limit_waits_total",
		Help: "Total number of admissions deferred until the window reset",
	}, []string{"mode"})

	rateLimitWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ghstats_rate_limit_wait_seconds",
		Help:    "Wait duration imposed by the rate limit tracker",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
	}, []string{"mode"})
)

// Decision is the outcome of an admission check. A zero Wait means the
// request may proceed now.
type Decision struct {
	// Wait is how long the caller must wait before asking again.
	Wait time.Duration
}

// Proceed reports whether the request may be issued immediately.
func (d Decision) Proceed() bool {
	return d.Wait <= 0
}

// Tracker holds the shared rate limit state for all workers in the process.
// Anonymous and token-authenticated budgets are tracked independently.
// All access is serialized by a single mutex; updates from response headers
// are fully applied before the next admission decision is made.
type Tracker struct {
	mu     sync.Mutex
	states map[Mode]*State
	logger zerolog.Logger

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewTracker creates a tracker seeded with GitHub's default budgets.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		states: map[Mode]*State{
			ModeAnonymous: {
				Limit:     DefaultAnonymousLimit,
				Remaining: DefaultAnonymousLimit,
			},
			ModeToken: {
				Limit:     DefaultAuthenticatedLimit,
				Remaining: DefaultAuthenticatedLimit,
			},
		},
		logger: logger,
		now:    time.Now,
	}
}

// state returns the state for a mode, creating a default if unknown.
func (t *Tracker) state(mode Mode) *State {
	s, ok := t.states[mode]
	if !ok {
		s = &State{Limit: DefaultAnonymousLimit, Remaining: DefaultAnonymousLimit}
		t.states[mode] = s
	}
	return s
}

// Admit decides whether a request may proceed now. If the budget is
// exhausted and the window has not reset, it returns the duration the
// caller must wait before retrying Admit. Otherwise it optimistically
// decrements the local estimate and allows the request; the estimate is
// corrected on the next real response via UpdateFromHeaders.
func (t *Tracker) Admit(mode Mode) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state(mode)
	now := t.now()

	// Window rolled over without us seeing a response: assume a fresh budget.
	if !s.ResetAt.IsZero() && !now.Before(s.ResetAt) && s.Remaining <= 0 {
		s.Remaining = s.Limit
	}

	if s.Exhausted(now) {
		wait := s.TimeUntilReset(now)
		rateLimitWaitsTotal.WithLabelValues(string(mode)).Inc()
		rateLimitWaitSeconds.WithLabelValues(string(mode)).Observe(wait.Seconds())

		t.logger.Warn().
			Str("mode", string(mode)).
			Dur("wait", wait).
			Time("reset_at", s.ResetAt).
			Msg("Rate limit budget exhausted - deferring request")

		return Decision{Wait: wait}
	}

	s.Remaining--
	rateLimitRemaining.WithLabelValues(string(mode)).Set(float64(s.Remaining))

	return Decision{}
}

// Wait blocks until Admit allows a request or the context is done.
func (t *Tracker) Wait(ctx context.Context, mode Mode) error {
	for {
		d := t.Admit(mode)
		if d.Proceed() {
			return nil
		}

		timer := time.NewTimer(d.Wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// UpdateFromHeaders corrects the tracked state from GitHub response headers.
// Called by the HTTP client after every real network response, never on
// cache hits. Missing headers leave the state untouched.
func (t *Tracker) UpdateFromHeaders(mode Mode, headers http.Header) {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return
	}

	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		t.logger.Warn().Err(err).Str("value", remainStr).
			Msg("Unparseable X-RateLimit-Remaining header")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state(mode)
	s.Remaining = remaining
	s.LastUpdate = t.now()

	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			s.Limit = limit
		}
	}

	if resetStr := headers.Get(HeaderReset); resetStr != "" {
		if resetEpoch, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			s.ResetAt = time.Unix(resetEpoch, 0)
		}
	}

	rateLimitRemaining.WithLabelValues(string(mode)).Set(float64(remaining))

	t.logger.Debug().
		Str("mode", string(mode)).
		Int("remaining", remaining).
		Time("reset_at", s.ResetAt).
		Msg("Rate limit state updated")
}

// Snapshot returns a copy of the current state for a mode.
func (t *Tracker) Snapshot(mode Mode) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.state(mode)
}
