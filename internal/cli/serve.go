package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amarzeus/github-stats-cli/internal/server"
	"github.com/amarzeus/github-stats-cli/pkg/batch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an HTTP API exposing account statistics",
	Long: `Serve starts an HTTP server with JSON endpoints backed by the same
cache, rate-limit, and resolver pipeline as the CLI:

  GET /api/stats?login=octocat        Resolve one account
  GET /api/compare?logins=a,b         Resolve several accounts
  GET /healthz                        Liveness probe
  GET /metrics                        Prometheus metrics

For long-running deployments the redis cache backend is recommended so
several instances share one response cache.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.String("addr", "", "listen address (default from config, :8080)")
	f.Int("concurrency", batch.DefaultConcurrency, "accounts resolved in parallel per compare request")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.ServeAddr = addr
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	srv := server.New(a.resolver, concurrency)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, cfg.ServeAddr)
}
