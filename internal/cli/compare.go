package cli

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/amarzeus/github-stats-cli/internal/output"
	"github.com/amarzeus/github-stats-cli/pkg/batch"
	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

var compareCmd = &cobra.Command{
	Use:   "compare <login> <login> [login...]",
	Short: "Compare statistics of multiple accounts side by side",
	Long: `Compare resolves several accounts concurrently and renders their
profile counters and total stars side by side. Accounts that fail to
resolve are reported individually; the comparison still includes every
account that succeeded.

Examples:
  github-stats compare torvalds gvanrossum
  github-stats compare a b c --max-repos 25 --format json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	f := compareCmd.Flags()
	f.Int("max-repos", stats.DefaultMaxRepos, "max number of repos per account")
	f.Int("concurrency", batch.DefaultConcurrency, "number of accounts resolved in parallel")
	f.String("format", "table", "output format: table, json, csv, or yaml")
	f.Bool("org", false, "treat all logins as organizations")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	kind := stats.KindUser
	if isOrg, _ := cmd.Flags().GetBool("org"); isOrg {
		kind = stats.KindOrganization
	}
	ids := make([]stats.AccountID, len(args))
	for i, login := range args {
		ids[i] = stats.AccountID{Login: login, Kind: kind}
	}

	maxRepos, _ := cmd.Flags().GetInt("max-repos")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	opts := stats.Options{MaxRepos: maxRepos, TTL: cfg.CacheTTL}

	bar := progressbar.NewOptions(len(ids),
		progressbar.OptionSetDescription("Fetching account data"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	aggregator := a.newAggregator(concurrency, func(p batch.Progress) {
		_ = bar.Add(1)
	})

	results := aggregator.ResolveAll(cmd.Context(), ids, opts)
	_ = bar.Finish()

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
			fmt.Fprintf(os.Stderr, "Error fetching data for %s: %v\n", r.Account, r.Err)
		}
	}
	resolved := batch.Succeeded(results)
	if len(resolved) == 0 {
		return fmt.Errorf("all %d accounts failed to resolve", len(ids))
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		return output.WriteComparison(cmd.OutOrStdout(), resolved)
	}
	return output.Write(cmd.OutOrStdout(), format, resolved)
}
