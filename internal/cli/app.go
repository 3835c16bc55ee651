// Package cli implements the github-stats command tree.
package cli

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amarzeus/github-stats-cli/internal/config"
	"github.com/amarzeus/github-stats-cli/internal/history"
	"github.com/amarzeus/github-stats-cli/pkg/batch"
	"github.com/amarzeus/github-stats-cli/pkg/cache"
	"github.com/amarzeus/github-stats-cli/pkg/client"
	"github.com/amarzeus/github-stats-cli/pkg/logging"
	"github.com/amarzeus/github-stats-cli/pkg/ratelimit"
	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

// app bundles the wired pipeline shared by all commands.
type app struct {
	cfg      *config.Config
	store    cache.Store
	tracker  *ratelimit.Tracker
	client   *client.Client
	resolver *stats.Resolver
	logger   zerolog.Logger

	closers []func() error
}

// newApp wires cache, tracker, client, and resolver from configuration.
func newApp(cfg *config.Config) (*app, error) {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
	})

	a := &app{cfg: cfg, logger: logging.NewLogger("cli")}

	store, closer, err := openCacheStore(cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.tracker = ratelimit.NewTracker(logging.NewLogger("ratelimit"))

	c, err := client.New(client.DefaultConfig(a.tracker, cfg.Token))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create client: %w", err)
	}
	a.client = c
	a.resolver = stats.NewResolver(c, store)

	return a, nil
}

// openCacheStore selects the configured cache backend. The bolt backend
// is the CLI default; memory suits one-shot runs and tests; redis suits
// long-running serve deployments.
func openCacheStore(cfg *config.Config) (cache.Store, func() error, error) {
	switch cfg.CacheBackend {
	case "memory":
		return cache.NewMemoryStore(), nil, nil
	case "bolt":
		store, err := cache.NewBoltStore(cfg.CachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache %s: %w", cfg.CachePath, err)
		}
		return store, store.Close, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return cache.NewRedisStore(rdb), rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q (want memory, bolt, or redis)", cfg.CacheBackend)
	}
}

// openHistory opens the snapshot database. History is best-effort; the
// caller logs and continues when it is unavailable.
func (a *app) openHistory() (*history.Store, error) {
	store, err := history.Open(a.cfg.HistoryPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// newAggregator builds a batch aggregator with the given progress hook.
func (a *app) newAggregator(concurrency int, onProgress func(batch.Progress)) *batch.Aggregator {
	return batch.New(a.resolver, batch.Config{
		Concurrency: concurrency,
		OnProgress:  onProgress,
	})
}

// Close releases backend handles in reverse open order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("Close failed")
		}
	}
	a.closers = nil
}
