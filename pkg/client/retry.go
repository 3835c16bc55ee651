package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghstats_retries_total",
		Help: "Total number of retry attempts by error kind",
	}, []string{"error_kind"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ghstats_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error kind",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_kind"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghstats_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error kind",
	}, []string{"error_kind"})
)

// RetryConfig holds the configuration for the backoff loop.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the first backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration

	// BackoffMultiplier is the exponential growth factor.
	BackoffMultiplier float64

	// MaxRateLimitWaits bounds how many rate-limit window waits a single
	// request may absorb before giving up. These waits do not consume
	// backoff attempts.
	MaxRateLimitWaits int
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		MaxRateLimitWaits: 2,
	}
}

// retryWithBackoff executes fn with exponential backoff and jitter.
//
// Transient failures (network, 5xx) are retried up to MaxAttempts.
// Terminal failures (not found, auth) surface immediately. A rate-limited
// failure is replayed without backoff: fn parks on the tracker's admission
// wait, so by the time it runs again the window has reset.
//
// The jitter source is injected so tests can make backoff deterministic.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, jitter func(time.Duration) time.Duration, logger zerolog.Logger, fn func() error) error {
	var lastErr error
	backoff := cfg.InitialBackoff
	rateLimitWaits := 0

	for attempt := 1; attempt <= cfg.MaxAttempts; {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		kind := KindOf(err)

		if kind == KindRateLimited {
			if rateLimitWaits >= cfg.MaxRateLimitWaits {
				return fmt.Errorf("rate limit persisted across %d window waits: %w", rateLimitWaits, lastErr)
			}
			rateLimitWaits++
			logger.Warn().
				Int("window_waits", rateLimitWaits).
				Msg("Rate limited - replaying request after window reset")
			continue
		}

		if !shouldRetry(kind) {
			return lastErr
		}

		if attempt >= cfg.MaxAttempts {
			break
		}

		retriesTotal.WithLabelValues(string(kind)).Inc()

		jittered := jitter(backoff)
		retryBackoffSeconds.WithLabelValues(string(kind)).Observe(jittered.Seconds())

		logger.Debug().
			Str("error_kind", string(kind)).
			Int("attempt", attempt).
			Dur("backoff", jittered).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(jittered)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("request cancelled during backoff: %w", errors.Join(ctx.Err(), lastErr))
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
		attempt++
	}

	kind := KindOf(lastErr)
	retryExhaustedTotal.WithLabelValues(string(kind)).Inc()
	logger.Warn().
		Str("error_kind", string(kind)).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, cfg.MaxAttempts, lastErr)
}
