// Package history persists resolved account snapshots to SQLite so
// follower and star counts can be tracked over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/amarzeus/github-stats-cli/pkg/logging"
	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    date TEXT NOT NULL,
    followers INTEGER,
    following INTEGER,
    public_repos INTEGER,
    public_gists INTEGER
);

CREATE TABLE IF NOT EXISTS repo_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    repo_name TEXT NOT NULL,
    date TEXT NOT NULL,
    stars INTEGER,
    forks INTEGER,
    open_issues INTEGER,
    language TEXT
);

CREATE INDEX IF NOT EXISTS idx_user_stats_username ON user_stats(username, date);
CREATE INDEX IF NOT EXISTS idx_repo_stats_username ON repo_stats(username, repo_name, date);
`

// Snapshot is one recorded point of an account's profile counters.
type Snapshot struct {
	Login       string    `json:"login"`
	Date        time.Time `json:"date"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	PublicRepos int       `json:"public_repos"`
	PublicGists int       `json:"public_gists"`
}

// RepoSnapshot is one recorded point of a repository's counters.
type RepoSnapshot struct {
	Repo       string    `json:"repo"`
	Date       time.Time `json:"date"`
	Stars      uint      `json:"stars"`
	Forks      int       `json:"forks"`
	OpenIssues int       `json:"open_issues"`
	Language   string    `json:"language,omitempty"`
}

// Store records account snapshots in a local SQLite database.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
		}
	}

	// WAL allows reads while a snapshot is being written.
	dsn := fmt.Sprintf("%s?_journal=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	// SQLite allows a single writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}

	return &Store{db: db, logger: logging.NewLogger("history"), now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one snapshot of the account's profile counters plus one
// row per resolved repository, all with the same timestamp.
func (s *Store) Record(ctx context.Context, st *stats.AccountStats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	date := s.now().UTC().Format(time.RFC3339)
	p := st.Profile

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_stats (username, date, followers, following, public_repos, public_gists)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		st.Account.Login, date, p.Followers, p.Following, p.PublicRepos, p.PublicGists,
	); err != nil {
		return fmt.Errorf("history: insert account snapshot: %w", err)
	}

	for _, repo := range st.Repositories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO repo_stats (username, repo_name, date, stars, forks, open_issues, language)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			st.Account.Login, repo.Name, date, repo.Stars, repo.Forks, repo.OpenIssues, repo.Language,
		); err != nil {
			return fmt.Errorf("history: insert repository snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}

	s.logger.Debug().
		Str("account", st.Account.Login).
		Int("repositories", len(st.Repositories)).
		Msg("Snapshot recorded")
	return nil
}

// AccountHistory returns up to limit snapshots for login, newest first.
func (s *Store) AccountHistory(ctx context.Context, login string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, followers, following, public_repos, public_gists
		 FROM user_stats WHERE username = ? ORDER BY date DESC LIMIT ?`,
		login, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query account snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			snap Snapshot
			date string
		)
		if err := rows.Scan(&date, &snap.Followers, &snap.Following, &snap.PublicRepos, &snap.PublicGists); err != nil {
			return nil, fmt.Errorf("history: scan snapshot: %w", err)
		}
		snap.Login = login
		snap.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("history: parse snapshot date %q: %w", date, err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// RepositoryHistory returns up to limit snapshots of one repository,
// newest first.
func (s *Store) RepositoryHistory(ctx context.Context, login, repo string, limit int) ([]RepoSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, stars, forks, open_issues, language
		 FROM repo_stats WHERE username = ? AND repo_name = ? ORDER BY date DESC LIMIT ?`,
		login, repo, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query repository snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []RepoSnapshot
	for rows.Next() {
		var (
			snap RepoSnapshot
			date string
		)
		if err := rows.Scan(&date, &snap.Stars, &snap.Forks, &snap.OpenIssues, &snap.Language); err != nil {
			return nil, fmt.Errorf("history: scan repository snapshot: %w", err)
		}
		snap.Repo = repo
		snap.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("history: parse snapshot date %q: %w", date, err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
