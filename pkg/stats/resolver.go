package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/amarzeus/github-stats-cli/pkg/cache"
	"github.com/amarzeus/github-stats-cli/pkg/logging"
	"github.com/amarzeus/github-stats-cli/pkg/ratelimit"
)

// Fetcher is the slice of the fetch client the resolver depends on.
// *client.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error)
	GetPaginated(ctx context.Context, endpoint string, query url.Values, maxItems int) ([]json.RawMessage, error)
	Mode() ratelimit.Mode
}

// Resolver turns account identifiers into AccountStats. Cache reads
// happen before every fetch; fetched payloads are written back with the
// configured TTL. Safe for concurrent use when the underlying store and
// fetcher are.
type Resolver struct {
	fetcher Fetcher
	store   cache.Store
	logger  zerolog.Logger
	now     func() time.Time
}

// NewResolver builds a resolver on top of a fetch client and cache store.
func NewResolver(fetcher Fetcher, store cache.Store) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		store:   store,
		logger:  logging.NewLogger("resolver"),
		now:     time.Now,
	}
}

// Resolve fetches and normalizes the statistics for one account.
//
// The profile fetch is load-bearing: its failure aborts the resolution.
// Repository and contributor fetches degrade gracefully instead, so a
// partial result with at least the profile is always returned once the
// profile is in hand. Contributors are only fetched for the top-starred
// repository, and only when opts.WithContributors is set.
func (r *Resolver) Resolve(ctx context.Context, id AccountID, opts Options) (*AccountStats, error) {
	if id.Login == "" {
		return nil, fmt.Errorf("resolve: login must not be empty")
	}
	opts = opts.normalized()
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}

	raw, err := r.fetchCached(ctx, id.profileEndpoint(), nil, ttl)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}
	var pp profilePayload
	if err := json.Unmarshal(raw, &pp); err != nil {
		return nil, fmt.Errorf("resolve %s: decode profile: %w", id, err)
	}

	result := &AccountStats{
		Account:   id,
		Profile:   pp.normalize(),
		FetchedAt: r.now(),
	}

	repos, err := r.fetchRepositories(ctx, id, opts, ttl)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("account", id.String()).
			Msg("Repository listing unavailable, returning profile only")
		return result, nil
	}
	result.Repositories = repos

	if opts.WithContributors {
		if top, ok := result.TopRepository(); ok {
			contributors, err := r.fetchContributors(ctx, id, top.Name, opts, ttl)
			if err != nil {
				r.logger.Warn().Err(err).
					Str("account", id.String()).
					Str("repository", top.Name).
					Msg("Contributor listing unavailable")
			} else {
				result.Contributors = contributors
			}
		}
	}

	return result, nil
}

// RateLimit reports the current core API quota. The endpoint does not
// count against the quota, so the response is never cached.
func (r *Resolver) RateLimit(ctx context.Context) (*RateLimitInfo, error) {
	raw, err := r.fetcher.Get(ctx, "/rate_limit", nil)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	var payload rateLimitPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("rate limit: decode: %w", err)
	}
	core := payload.Resources.Core
	return &RateLimitInfo{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		ResetAt:   time.Unix(core.Reset, 0).UTC(),
	}, nil
}

// fetchCached returns the cached payload for endpoint, fetching and
// caching on a miss. Cache write failures are logged, never surfaced.
func (r *Resolver) fetchCached(ctx context.Context, endpoint string, query url.Values, ttl time.Duration) ([]byte, error) {
	key := cache.Key{Endpoint: endpoint, Query: query, Mode: string(r.fetcher.Mode())}
	if entry, err := r.store.Get(ctx, key); err == nil {
		return entry.Payload, nil
	}

	payload, err := r.fetcher.Get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	if err := r.store.Set(ctx, key, payload, ttl); err != nil {
		r.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache write failed")
	}
	return payload, nil
}

// fetchRepositories returns the sorted, filtered repository listing.
// MaxRepos and Since are part of the cache key so listings fetched with
// different options never collide.
func (r *Resolver) fetchRepositories(ctx context.Context, id AccountID, opts Options, ttl time.Duration) ([]Repository, error) {
	keyQuery := url.Values{"max": {strconv.Itoa(opts.MaxRepos)}}
	if !opts.Since.IsZero() {
		keyQuery.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	key := cache.Key{Endpoint: id.reposEndpoint(), Query: keyQuery, Mode: string(r.fetcher.Mode())}

	raw, err := r.listCached(ctx, key, id.reposEndpoint(), opts.MaxRepos, ttl)
	if err != nil {
		return nil, err
	}

	var payloads []repoPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, fmt.Errorf("decode repositories: %w", err)
	}

	repos := make([]Repository, 0, len(payloads))
	for _, p := range payloads {
		repo := p.normalize()
		// Inclusive cutoff: a repository updated exactly at Since stays.
		if !opts.Since.IsZero() && repo.UpdatedAt.Before(opts.Since) {
			continue
		}
		repos = append(repos, repo)
	}

	sortRepositories(repos)
	if len(repos) > opts.MaxRepos {
		repos = repos[:opts.MaxRepos]
	}
	return repos, nil
}

// fetchContributors returns the top repository's contributor list.
func (r *Resolver) fetchContributors(ctx context.Context, id AccountID, repo string, opts Options, ttl time.Duration) ([]Contributor, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contributors", id.Login, repo)
	keyQuery := url.Values{"max": {strconv.Itoa(opts.MaxContributors)}}
	key := cache.Key{Endpoint: endpoint, Query: keyQuery, Mode: string(r.fetcher.Mode())}

	raw, err := r.listCached(ctx, key, endpoint, opts.MaxContributors, ttl)
	if err != nil {
		return nil, err
	}

	var payloads []contributorPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, fmt.Errorf("decode contributors: %w", err)
	}

	contributors := make([]Contributor, 0, len(payloads))
	for _, p := range payloads {
		contributors = append(contributors, p.normalize())
	}
	return contributors, nil
}

// listCached returns the raw JSON array for a paginated endpoint,
// fetching up to maxItems and caching the concatenated listing on a miss.
func (r *Resolver) listCached(ctx context.Context, key cache.Key, endpoint string, maxItems int, ttl time.Duration) ([]byte, error) {
	if entry, err := r.store.Get(ctx, key); err == nil {
		return entry.Payload, nil
	}

	items, err := r.fetcher.GetPaginated(ctx, endpoint, nil, maxItems)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode listing: %w", err)
	}
	if err := r.store.Set(ctx, key, raw, ttl); err != nil {
		r.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache write failed")
	}
	return raw, nil
}

// sortRepositories orders by stars descending, names ascending on ties.
func sortRepositories(repos []Repository) {
	sort.Slice(repos, func(i, j int) bool {
		if repos[i].Stars != repos[j].Stars {
			return repos[i].Stars > repos[j].Stars
		}
		return repos[i].Name < repos[j].Name
	})
}
