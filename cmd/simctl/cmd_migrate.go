package main

import (
	"fmt"

	"github.com/kiranshivaraju/replysim/internal/config"
	"github.com/kiranshivaraju/replysim/internal/store"
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending schema migrations to the configured database.

Postgres migrations are read from --dir. The SQLite schema is embedded in the
binary and applied whenever the database is opened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Database.Driver == config.DriverPostgres {
				if err := store.RunMigrations(c.cfg.Database.URL, dir); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
			} else {
				st, err := c.openStore(cmd.Context())
				if err != nil {
					return err
				}
				if err := st.Close(); err != nil {
					return fmt.Errorf("close store: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", c.cfg.Database.Driver)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "Directory holding Postgres migrations")
	return cmd
}
