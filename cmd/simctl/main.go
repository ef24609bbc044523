// Package main is simctl, the ReplySim operator CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiranshivaraju/replysim/internal/cache"
	"github.com/kiranshivaraju/replysim/internal/config"
	"github.com/kiranshivaraju/replysim/internal/store"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand for one invocation.
type cli struct {
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "simctl",
		Short:        "Operate the ReplySim simulated-test-run engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if c.verbose {
				level = slog.LevelDebug
			}
			c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			cfg, err := config.LoadCLI()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newMigrateCmd(c))
	root.AddCommand(newCompaniesCmd(c))
	root.AddCommand(newRunCmd(c))
	root.AddCommand(newTestsCmd(c))
	return root
}

func (c *cli) openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, c.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// openCache returns nil when Redis is not configured or not reachable; the
// CLI works without it.
func (c *cli) openCache(ctx context.Context) *cache.RedisCache {
	if c.cfg.Redis.URL == "" {
		return nil
	}
	rc, err := cache.NewRedisCache(c.cfg.Redis.URL)
	if err != nil {
		c.logger.Warn("redis disabled", "error", err)
		return nil
	}
	if err := rc.Ping(ctx); err != nil {
		c.logger.Warn("redis disabled", "error", err)
		rc.Close()
		return nil
	}
	return rc
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
