// Package server exposes the resolver pipeline over HTTP, mirroring the
// CLI operations for dashboard and automation use.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amarzeus/github-stats-cli/pkg/batch"
	"github.com/amarzeus/github-stats-cli/pkg/client"
	"github.com/amarzeus/github-stats-cli/pkg/logging"
	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

const requestTimeout = 2 * time.Minute

// Resolver is the per-account dependency, satisfied by *stats.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error)
}

// Server handles the HTTP API.
type Server struct {
	resolver   Resolver
	aggregator *batch.Aggregator
	logger     zerolog.Logger
	mux        *http.ServeMux
}

// New builds the HTTP API around a resolver.
func New(resolver Resolver, concurrency int) *Server {
	s := &Server{
		resolver:   resolver,
		aggregator: batch.New(resolver, batch.Config{Concurrency: concurrency}),
		logger:     logging.NewLogger("server"),
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/compare", s.handleCompare)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// handleStats resolves one account.
//
// GET /api/stats?login=octocat[&org=true][&max_repos=10][&since=2024-01-01][&contributors=true]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	login := r.URL.Query().Get("login")
	if login == "" {
		writeError(w, http.StatusBadRequest, "login query parameter is required")
		return
	}

	id := stats.AccountID{Login: login, Kind: stats.KindUser}
	if r.URL.Query().Get("org") == "true" {
		id.Kind = stats.KindOrganization
	}

	opts, err := optionsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := s.resolver.Resolve(ctx, id, opts)
	if err != nil {
		s.writeResolveError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCompare resolves several accounts and reports per-account outcomes.
//
// GET /api/compare?logins=a,b,c[&max_repos=10]
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := r.URL.Query().Get("logins")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "logins query parameter is required (comma-separated)")
		return
	}

	var ids []stats.AccountID
	for _, login := range strings.Split(raw, ",") {
		login = strings.TrimSpace(login)
		if login != "" {
			ids = append(ids, stats.AccountID{Login: login, Kind: stats.KindUser})
		}
	}
	if len(ids) < 2 {
		writeError(w, http.StatusBadRequest, "at least two logins are required")
		return
	}

	opts, err := optionsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	results := s.aggregator.ResolveAll(ctx, ids, opts)

	type slot struct {
		Login string              `json:"login"`
		Stats *stats.AccountStats `json:"stats,omitempty"`
		Error string              `json:"error,omitempty"`
	}
	response := make([]slot, len(results))
	for i, res := range results {
		response[i] = slot{Login: res.Account.Login, Stats: res.Stats}
		if res.Err != nil {
			response[i].Error = res.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// writeResolveError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeResolveError(w http.ResponseWriter, id stats.AccountID, err error) {
	status := http.StatusBadGateway
	switch client.KindOf(err) {
	case client.KindNotFound:
		status = http.StatusNotFound
	case client.KindAuth:
		status = http.StatusForbidden
	case client.KindRateLimited:
		status = http.StatusTooManyRequests
	}
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	s.logger.Warn().Err(err).Str("account", id.String()).Int("status", status).Msg("Resolution failed")
	writeError(w, status, err.Error())
}

func optionsFromQuery(r *http.Request) (stats.Options, error) {
	var opts stats.Options

	if v := r.URL.Query().Get("max_repos"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("invalid max_repos %q", v)
		}
		opts.MaxRepos = n
	}
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return opts, fmt.Errorf("invalid since date %q (want YYYY-MM-DD)", v)
		}
		opts.Since = t
	}
	opts.WithContributors = r.URL.Query().Get("contributors") == "true"

	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
