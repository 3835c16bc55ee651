package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Show the current GitHub API rate limit status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.resolver.RateLimit(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch rate limit: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "GitHub API Rate Limit Status:")
		fmt.Fprintf(out, "Limit:      %d\n", info.Limit)
		fmt.Fprintf(out, "Remaining:  %d\n", info.Remaining)
		fmt.Fprintf(out, "Reset Time: %s\n", info.ResetAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rateLimitCmd)
}
