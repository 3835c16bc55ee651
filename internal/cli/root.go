package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amarzeus/github-stats-cli/internal/config"
	"github.com/amarzeus/github-stats-cli/internal/output"
	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

var rootCmd = &cobra.Command{
	Use:   "github-stats <login>",
	Short: "Fetch and display GitHub account statistics",
	Long: `github-stats fetches profile and repository statistics for GitHub
users and organizations. Responses are cached locally with a TTL and all
requests respect the GitHub API rate limit, waiting for the window reset
instead of failing when the budget is spent.

Examples:
  github-stats octocat                         # User stats as a table
  github-stats octocat --format json           # Machine-readable output
  github-stats --org golang --max-repos 25     # Organization stats
  github-stats octocat --since 2024-01-01      # Only recently updated repos
  github-stats octocat --contributors          # Top repo contributor list
  github-stats octocat --health --sizes        # Repo health scores and sizes
  github-stats octocat --chart stars.png       # Bar chart of stars`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,

	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("token", "", "GitHub personal access token (defaults to GITHUB_TOKEN)")
	pf.String("cache-backend", "", "cache backend: memory, bolt, or redis")
	pf.String("cache-path", "", "bbolt cache file location")
	pf.Duration("ttl", 0, "cache entry lifetime")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	f := rootCmd.Flags()
	f.String("org", "", "fetch stats for an organization instead of a user")
	f.Int("max-repos", stats.DefaultMaxRepos, "max number of repos to display")
	f.String("since", "", "only repos updated on or after this date (YYYY-MM-DD)")
	f.Bool("contributors", false, "show top contributors for the top repository")
	f.Bool("health", false, "show a health score column for each repository")
	f.Bool("sizes", false, "show a size column for each repository")
	f.String("format", "table", "output format: table, json, csv, or yaml")
	f.String("chart", "", "write a PNG bar chart of top repositories to this file")
	f.String("pie", "", "write a PNG language-distribution pie chart to this file")
	f.String("html", "", "write an HTML dashboard to this file")
	f.Bool("no-record", false, "skip recording this run in the history database")
}

// loadConfig merges persistent flag overrides into the file/env config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if v, _ := cmd.Flags().GetString("token"); v != "" {
		cfg.Token = v
	}
	if v, _ := cmd.Flags().GetString("cache-backend"); v != "" {
		cfg.CacheBackend = v
	}
	if v, _ := cmd.Flags().GetString("cache-path"); v != "" {
		cfg.CachePath = v
	}
	if v, _ := cmd.Flags().GetDuration("ttl"); v > 0 {
		cfg.CacheTTL = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// resolveOptions builds stats options from command flags.
func resolveOptions(cmd *cobra.Command, cfg *config.Config) (stats.Options, error) {
	opts := stats.Options{TTL: cfg.CacheTTL}

	opts.MaxRepos, _ = cmd.Flags().GetInt("max-repos")
	opts.WithContributors, _ = cmd.Flags().GetBool("contributors")

	if since, _ := cmd.Flags().GetString("since"); since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			return opts, fmt.Errorf("invalid --since date %q (want YYYY-MM-DD)", since)
		}
		opts.Since = t
	}
	return opts, nil
}

func runStats(cmd *cobra.Command, args []string) error {
	org, _ := cmd.Flags().GetString("org")

	var id stats.AccountID
	switch {
	case org != "":
		id = stats.AccountID{Login: org, Kind: stats.KindOrganization}
	case len(args) == 1:
		id = stats.AccountID{Login: args[0], Kind: stats.KindUser}
	default:
		return fmt.Errorf("provide a username or --org organization (see --help)")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := resolveOptions(cmd, cfg)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.resolver.Resolve(cmd.Context(), id, opts)
	if err != nil {
		return err
	}

	if noRecord, _ := cmd.Flags().GetBool("no-record"); !noRecord {
		recordHistory(a, cmd, result)
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		tableOpts := output.TableOptions{}
		tableOpts.ShowHealth, _ = cmd.Flags().GetBool("health")
		tableOpts.ShowSizes, _ = cmd.Flags().GetBool("sizes")
		if err := output.WriteTable(cmd.OutOrStdout(), result, tableOpts); err != nil {
			return err
		}
	} else if err := output.Write(cmd.OutOrStdout(), format, []*stats.AccountStats{result}); err != nil {
		return err
	}

	return writeArtifacts(cmd, result)
}

// recordHistory stores a snapshot of the run. Best-effort: failures are
// logged, never fatal.
func recordHistory(a *app, cmd *cobra.Command, result *stats.AccountStats) {
	store, err := a.openHistory()
	if err != nil {
		a.logger.Warn().Err(err).Msg("History database unavailable")
		return
	}
	if err := store.Record(cmd.Context(), result); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to record history snapshot")
	}
}

// writeArtifacts renders the optional chart and dashboard files.
func writeArtifacts(cmd *cobra.Command, result *stats.AccountStats) error {
	artifacts := []struct {
		flag   string
		render func(f *os.File) error
	}{
		{"chart", func(f *os.File) error { return output.WriteBarChart(f, result) }},
		{"pie", func(f *os.File) error { return output.WritePieChart(f, result) }},
		{"html", func(f *os.File) error { return output.WriteDashboard(f, result) }},
	}

	for _, artifact := range artifacts {
		path, _ := cmd.Flags().GetString(artifact.flag)
		if path == "" {
			continue
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := artifact.render(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
	}
	return nil
}
