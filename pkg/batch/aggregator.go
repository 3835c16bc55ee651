// Package batch resolves multiple accounts concurrently under a bounded
// worker limit, preserving input order and isolating per-account failures.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/amarzeus/github-stats-cli/pkg/logging"
	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

const (
	// DefaultConcurrency is a conservative worker bound. All workers
	// share one rate-limit budget, so more parallelism mostly buys more
	// waiting.
	DefaultConcurrency = 4

	// MaxConcurrency caps caller-supplied worker counts.
	MaxConcurrency = 8
)

// Resolver is the per-account resolution dependency. *stats.Resolver
// satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error)
}

// Result is one slot of a batch outcome: either Stats or Err is set.
type Result struct {
	Account stats.AccountID
	Stats   *stats.AccountStats
	Err     error
}

// OK reports whether the slot resolved successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

// Progress describes one completed slot, for live reporting.
type Progress struct {
	Account   stats.AccountID
	Completed int
	Total     int
	Err       error
}

// Config controls a batch run.
type Config struct {
	// Concurrency bounds the worker pool. Zero or negative selects
	// DefaultConcurrency; values above MaxConcurrency are clamped.
	Concurrency int

	// OnProgress, when set, is invoked once per completed account. Calls
	// are serialized; the callback must not block for long.
	OnProgress func(Progress)
}

// Aggregator runs batches of account resolutions.
type Aggregator struct {
	resolver    Resolver
	concurrency int
	onProgress  func(Progress)
	logger      zerolog.Logger
}

// New creates an aggregator around a resolver.
func New(resolver Resolver, cfg Config) *Aggregator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}
	return &Aggregator{
		resolver:    resolver,
		concurrency: concurrency,
		onProgress:  cfg.OnProgress,
		logger:      logging.NewLogger("batch"),
	}
}

// ResolveAll resolves every identifier and returns one Result per input,
// in input order regardless of completion order.
//
// Failures stay in their slot and never abort sibling accounts. When ctx
// is cancelled, accounts not yet dispatched (and those observed mid-wait)
// carry the context error; accounts already resolved keep their results.
func (a *Aggregator) ResolveAll(ctx context.Context, ids []stats.AccountID, opts stats.Options) []Result {
	results := make([]Result, len(ids))
	if len(ids) == 0 {
		return results
	}

	started := time.Now()
	batchesTotal.Inc()
	batchSize.Observe(float64(len(ids)))

	var (
		mu        sync.Mutex
		completed int
	)
	report := func(id stats.AccountID, err error) {
		// The callback runs under mu so consumers see serialized calls.
		mu.Lock()
		defer mu.Unlock()
		completed++
		if a.onProgress != nil {
			a.onProgress(Progress{Account: id, Completed: completed, Total: len(ids), Err: err})
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			// A cancelled batch stops issuing new work; the slot records
			// why it never ran.
			if err := ctx.Err(); err != nil {
				results[i] = Result{Account: id, Err: err}
				report(id, err)
				return nil
			}

			st, err := a.resolver.Resolve(ctx, id, opts)
			results[i] = Result{Account: id, Stats: st, Err: err}
			if err != nil {
				accountsFailed.Inc()
				a.logger.Warn().Err(err).Str("account", id.String()).Msg("Account resolution failed")
			} else {
				accountsResolved.Inc()
			}
			report(id, err)
			return nil
		})
	}

	g.Wait()
	batchDuration.Observe(time.Since(started).Seconds())

	a.logger.Info().
		Int("accounts", len(ids)).
		Int("failed", countFailed(results)).
		Dur("elapsed", time.Since(started)).
		Msg("Batch complete")

	return results
}

// Succeeded returns the successfully resolved stats, in input order.
func Succeeded(results []Result) []*stats.AccountStats {
	out := make([]*stats.AccountStats, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r.Stats)
		}
	}
	return out
}

func countFailed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
