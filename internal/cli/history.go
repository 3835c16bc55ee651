package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <login>",
	Short: "Show recorded snapshots for an account",
	Long: `History lists the profile snapshots recorded by previous runs,
newest first. Use --repo to show the recorded counters of a single
repository instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	f := historyCmd.Flags()
	f.Int("limit", 30, "max number of snapshots to show")
	f.String("repo", "", "show history for this repository instead of the profile")
	f.Bool("json", false, "output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	login := args[0]
	limit, _ := cmd.Flags().GetInt("limit")
	repo, _ := cmd.Flags().GetString("repo")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.openHistory()
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}

	out := cmd.OutOrStdout()

	if repo != "" {
		snapshots, err := store.RepositoryHistory(cmd.Context(), login, repo, limit)
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			fmt.Fprintf(out, "No historical data found for %s/%s\n", login, repo)
			return nil
		}
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(snapshots)
		}
		fmt.Fprintf(out, "Historical data for %s/%s:\n", login, repo)
		fmt.Fprintf(out, "%-12s  %-8s  %-8s  %-12s  %s\n", "Date", "Stars", "Forks", "Open Issues", "Language")
		for _, s := range snapshots {
			fmt.Fprintf(out, "%-12s  %-8d  %-8d  %-12d  %s\n",
				s.Date.Format("2006-01-02"), s.Stars, s.Forks, s.OpenIssues, s.Language)
		}
		return nil
	}

	snapshots, err := store.AccountHistory(cmd.Context(), login, limit)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintf(out, "No historical data found for %s\n", login)
		return nil
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshots)
	}
	fmt.Fprintf(out, "Historical data for %s:\n", login)
	fmt.Fprintf(out, "%-12s  %-10s  %-10s  %-13s  %s\n", "Date", "Followers", "Following", "Public Repos", "Public Gists")
	for _, s := range snapshots {
		fmt.Fprintf(out, "%-12s  %-10d  %-10d  %-13d  %d\n",
			s.Date.Format("2006-01-02"), s.Followers, s.Following, s.PublicRepos, s.PublicGists)
	}
	return nil
}
