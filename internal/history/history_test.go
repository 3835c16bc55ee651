package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	store.logger = zerolog.Nop()
	return store
}

func snapshotStats(followers int, stars uint) *stats.AccountStats {
	return &stats.AccountStats{
		Account: stats.AccountID{Login: "octocat", Kind: stats.KindUser},
		Profile: stats.Profile{
			Login:       "octocat",
			Followers:   followers,
			Following:   9,
			PublicRepos: 8,
			PublicGists: 4,
		},
		Repositories: []stats.Repository{
			{Name: "flagship", Stars: stars, Language: "Go", Forks: 12, OpenIssues: 3},
		},
	}
}

func TestStore_RecordAndAccountHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	for day, followers := range []int{100, 105, 110} {
		store.now = func() time.Time { return base.AddDate(0, 0, day) }
		if err := store.Record(ctx, snapshotStats(followers, 50)); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	snapshots, err := store.AccountHistory(ctx, "octocat", 30)
	if err != nil {
		t.Fatalf("AccountHistory() error: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snapshots))
	}
	// Newest first.
	if snapshots[0].Followers != 110 || snapshots[2].Followers != 100 {
		t.Errorf("snapshot order wrong: %+v", snapshots)
	}
	if !snapshots[0].Date.Equal(base.AddDate(0, 0, 2)) {
		t.Errorf("snapshot date = %v, want %v", snapshots[0].Date, base.AddDate(0, 0, 2))
	}
}

func TestStore_AccountHistoryLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	for day := 0; day < 5; day++ {
		store.now = func() time.Time { return base.AddDate(0, 0, day) }
		if err := store.Record(ctx, snapshotStats(100+day, 50)); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	snapshots, err := store.AccountHistory(ctx, "octocat", 2)
	if err != nil {
		t.Fatalf("AccountHistory() error: %v", err)
	}
	if len(snapshots) != 2 {
		t.Errorf("got %d snapshots, want 2", len(snapshots))
	}
}

func TestStore_RepositoryHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	for day, stars := range []uint{40, 45} {
		store.now = func() time.Time { return base.AddDate(0, 0, day) }
		if err := store.Record(ctx, snapshotStats(100, stars)); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	snapshots, err := store.RepositoryHistory(ctx, "octocat", "flagship", 30)
	if err != nil {
		t.Fatalf("RepositoryHistory() error: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snapshots))
	}
	if snapshots[0].Stars != 45 || snapshots[1].Stars != 40 {
		t.Errorf("snapshot order wrong: %+v", snapshots)
	}
	if snapshots[0].Language != "Go" {
		t.Errorf("Language = %q, want Go", snapshots[0].Language)
	}
}

func TestStore_HistoryForUnknownAccount(t *testing.T) {
	store := newTestStore(t)

	snapshots, err := store.AccountHistory(context.Background(), "ghost", 30)
	if err != nil {
		t.Fatalf("AccountHistory() error: %v", err)
	}
	if len(snapshots) != 0 {
		t.Errorf("got %d snapshots for unknown account, want 0", len(snapshots))
	}
}
