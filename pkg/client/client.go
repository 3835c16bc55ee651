// Package client provides the GitHub REST API fetch client with rate-limit
// gating, transparent pagination, and retry handling.
package client

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/amarzeus/github-stats-cli/pkg/logging"
	"github.com/amarzeus/github-stats-cli/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// DefaultUserAgent identifies this tool to the API.
const DefaultUserAgent = "github-stats-cli/0.1.0"

// maxBodyBytes caps response reads; the statistics payloads are small.
const maxBodyBytes = 8 << 20

// Prometheus metrics for request operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghstats_requests_total",
		Help: "Total GitHub API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ghstats_request_duration_seconds",
		Help:    "GitHub API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghstats_errors_total",
		Help: "Total GitHub API errors by kind",
	}, []string{"kind"})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL overrides the API root (tests point this at a mock server).
	BaseURL string

	// Token is an optional personal access token. When set, requests are
	// authenticated and the larger rate-limit budget applies.
	Token string

	// UserAgent sent with every request.
	UserAgent string

	// Tracker is the shared rate-limit state. Required.
	Tracker *ratelimit.Tracker

	// Retry configures the backoff loop.
	Retry RetryConfig

	// Timeout per HTTP request.
	Timeout time.Duration

	// JitterSeed seeds the backoff jitter source. Zero means time-seeded.
	JitterSeed int64

	// HTTPClient overrides the transport (tests). Token auth is not
	// applied on top of a custom client.
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(tracker *ratelimit.Tracker, token string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Token:     token,
		UserAgent: DefaultUserAgent,
		Tracker:   tracker,
		Retry:     DefaultRetryConfig(),
		Timeout:   30 * time.Second,
	}
}

// Client issues rate-limit-respecting requests against the GitHub API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	mode       ratelimit.Mode
	tracker    *ratelimit.Tracker
	retry      RetryConfig
	logger     zerolog.Logger

	// rng drives backoff jitter; guarded because workers share the client.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a GitHub API client.
func New(cfg Config) (*Client, error) {
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("rate limit tracker is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	mode := ratelimit.ModeAnonymous
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		var transport http.RoundTripper = http.DefaultTransport
		if cfg.Token != "" {
			transport = &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
				Base:   transport,
			}
		}
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		}
	}
	if cfg.Token != "" {
		mode = ratelimit.ModeToken
	}

	seed := cfg.JitterSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		mode:       mode,
		tracker:    cfg.Tracker,
		retry:      cfg.Retry,
		logger:     logging.NewLogger("github-client"),
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// Mode returns the rate-limit budget this client draws from.
func (c *Client) Mode() ratelimit.Mode {
	return c.mode
}

// Get fetches a single endpoint and returns the raw response body.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	body, _, err := c.do(ctx, endpoint, query)
	return body, err
}

// do performs one logical request: rate-limit admission, the HTTP call
// wrapped in the retry loop, and a tracker update from every real
// response. Returns the body and response headers on success.
func (c *Client) do(ctx context.Context, endpoint string, query url.Values) ([]byte, http.Header, error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body []byte
	var headers http.Header

	attempt := func() error {
		// Admission: park here when the budget is exhausted.
		if err := c.tracker.Wait(ctx, c.mode); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/vnd.github+json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			errorsTotal.WithLabelValues(string(KindNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &APIError{Kind: KindNetwork, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		// The budget estimate is corrected from every real response,
		// never from cache hits.
		c.tracker.UpdateFromHeaders(c.mode, resp.Header)

		requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode == http.StatusOK {
			data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if err != nil {
				errorsTotal.WithLabelValues(string(KindNetwork)).Inc()
				return &APIError{Kind: KindNetwork, Message: "read response body", Err: err}
			}
			body = data
			headers = resp.Header.Clone()
			return nil
		}

		kind := classify(resp.StatusCode, resp.Header.Get(ratelimit.HeaderRemaining))
		errorsTotal.WithLabelValues(string(kind)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Str("error_kind", string(kind)).
			Msg("GitHub API request error")

		return &APIError{
			StatusCode: resp.StatusCode,
			Kind:       kind,
			Message:    resp.Status,
		}
	}

	if err := retryWithBackoff(ctx, c.retry, c.jitter, c.logger, attempt); err != nil {
		return nil, nil, err
	}

	return body, headers, nil
}

// jitter spreads a backoff duration by ±20% to avoid synchronized retries
// across workers. Locked because workers share the seeded source.
func (c *Client) jitter(backoff time.Duration) time.Duration {
	c.rngMu.Lock()
	f := c.rng.Float64()
	c.rngMu.Unlock()
	return time.Duration(float64(backoff) * (0.8 + f*0.4))
}
