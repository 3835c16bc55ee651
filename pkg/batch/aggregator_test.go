package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/amarzeus/github-stats-cli/pkg/client"
	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

// fakeResolver delegates to a func so tests control timing and outcome
// per account.
type fakeResolver struct {
	fn func(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error) {
	return f.fn(ctx, id, opts)
}

func okStats(id stats.AccountID) *stats.AccountStats {
	return &stats.AccountStats{Account: id, Profile: stats.Profile{Login: id.Login}}
}

func accounts(logins ...string) []stats.AccountID {
	ids := make([]stats.AccountID, len(logins))
	for i, login := range logins {
		ids[i] = stats.AccountID{Login: login, Kind: stats.KindUser}
	}
	return ids
}

func newTestAggregator(resolver Resolver, cfg Config) *Aggregator {
	a := New(resolver, cfg)
	a.logger = zerolog.Nop()
	return a
}

func TestAggregator_PreservesInputOrder(t *testing.T) {
	// Earlier slots resolve slower, so completion order is the reverse
	// of input order.
	resolver := &fakeResolver{fn: func(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error) {
		var delay time.Duration
		switch id.Login {
		case "slow":
			delay = 50 * time.Millisecond
		case "medium":
			delay = 20 * time.Millisecond
		}
		time.Sleep(delay)
		return okStats(id), nil
	}}

	a := newTestAggregator(resolver, Config{Concurrency: 8})
	results := a.ResolveAll(context.Background(), accounts("slow", "medium", "fast"), stats.Options{})

	want := []string{"slow", "medium", "fast"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, login := range want {
		if results[i].Account.Login != login {
			t.Errorf("results[%d] = %q, want %q", i, results[i].Account.Login, login)
		}
		if !results[i].OK() {
			t.Errorf("results[%d] failed: %v", i, results[i].Err)
		}
	}
}

func TestAggregator_PartialFailureIsolation(t *testing.T) {
	notFound := &client.APIError{StatusCode: 404, Kind: client.KindNotFound, Message: "Not Found"}

	resolver := &fakeResolver{fn: func(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error) {
		if id.Login == "ghost" {
			return nil, notFound
		}
		return okStats(id), nil
	}}

	a := newTestAggregator(resolver, Config{})
	results := a.ResolveAll(context.Background(), accounts("alice", "ghost", "carol"), stats.Options{})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].OK() || !results[2].OK() {
		t.Errorf("sibling slots should succeed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].OK() {
		t.Fatal("results[1] should carry the failure")
	}
	if kind := client.KindOf(results[1].Err); kind != client.KindNotFound {
		t.Errorf("KindOf(results[1].Err) = %v, want not_found", kind)
	}

	if got := Succeeded(results); len(got) != 2 || got[0].Account.Login != "alice" || got[1].Account.Login != "carol" {
		t.Errorf("Succeeded() = %d entries, want alice and carol", len(got))
	}
}

func TestAggregator_BoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int32

	resolver := &fakeResolver{fn: func(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return okStats(id), nil
	}}

	a := newTestAggregator(resolver, Config{Concurrency: 2})
	a.ResolveAll(context.Background(), accounts("a", "b", "c", "d", "e", "f"), stats.Options{})

	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestAggregator_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first account cancels the batch from inside its resolution;
	// with one worker, the remaining slots are never dispatched.
	resolver := &fakeResolver{fn: func(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error) {
		if id.Login == "first" {
			cancel()
			return okStats(id), nil
		}
		t.Errorf("account %s should not be dispatched after cancellation", id.Login)
		return okStats(id), nil
	}}

	a := newTestAggregator(resolver, Config{Concurrency: 1})
	results := a.ResolveAll(ctx, accounts("first", "second", "third"), stats.Options{})

	if !results[0].OK() {
		t.Errorf("results[0] should keep its completed result: %v", results[0].Err)
	}
	for i := 1; i < 3; i++ {
		if !errors.Is(results[i].Err, context.Canceled) {
			t.Errorf("results[%d].Err = %v, want context.Canceled", i, results[i].Err)
		}
	}
}

func TestAggregator_ProgressCallback(t *testing.T) {
	var (
		mu       sync.Mutex
		reported []Progress
	)

	resolver := &fakeResolver{fn: func(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error) {
		if id.Login == "ghost" {
			return nil, errors.New("boom")
		}
		return okStats(id), nil
	}}

	a := newTestAggregator(resolver, Config{OnProgress: func(p Progress) {
		mu.Lock()
		reported = append(reported, p)
		mu.Unlock()
	}})
	a.ResolveAll(context.Background(), accounts("alice", "ghost", "carol"), stats.Options{})

	if len(reported) != 3 {
		t.Fatalf("got %d progress events, want 3", len(reported))
	}
	seen := make(map[int]bool)
	failures := 0
	for _, p := range reported {
		if p.Total != 3 {
			t.Errorf("Progress.Total = %d, want 3", p.Total)
		}
		seen[p.Completed] = true
		if p.Err != nil {
			failures++
		}
	}
	for i := 1; i <= 3; i++ {
		if !seen[i] {
			t.Errorf("missing progress event with Completed=%d", i)
		}
	}
	if failures != 1 {
		t.Errorf("got %d failure events, want 1", failures)
	}
}

func TestAggregator_ProgressCallbackIsSerialized(t *testing.T) {
	resolver := &fakeResolver{fn: func(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error) {
		return okStats(id), nil
	}}

	// The callback keeps plain (unsynchronized) state; the race detector
	// flags any concurrent invocation.
	events := 0
	var last int
	a := newTestAggregator(resolver, Config{Concurrency: 8, OnProgress: func(p Progress) {
		events++
		if p.Completed != last+1 {
			t.Errorf("Progress.Completed = %d after %d, want %d", p.Completed, last, last+1)
		}
		last = p.Completed
	}})

	ids := accounts("a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l")
	a.ResolveAll(context.Background(), ids, stats.Options{})

	if events != len(ids) {
		t.Errorf("got %d progress events, want %d", events, len(ids))
	}
}

func TestAggregator_EmptyInput(t *testing.T) {
	resolver := &fakeResolver{fn: func(ctx context.Context, id stats.AccountID, opts stats.Options) (*stats.AccountStats, error) {
		t.Error("resolver should not be called for an empty batch")
		return nil, nil
	}}

	a := newTestAggregator(resolver, Config{})
	if results := a.ResolveAll(context.Background(), nil, stats.Options{}); len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestNew_ConcurrencyClamping(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultConcurrency},
		{-3, DefaultConcurrency},
		{2, 2},
		{100, MaxConcurrency},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("concurrency=%d", tt.in), func(t *testing.T) {
			a := New(&fakeResolver{}, Config{Concurrency: tt.in})
			if a.concurrency != tt.want {
				t.Errorf("concurrency = %d, want %d", a.concurrency, tt.want)
			}
		})
	}
}
