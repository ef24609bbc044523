package main

import (
	"fmt"

	"github.com/kiranshivaraju/replysim/pkg/models"
	"github.com/spf13/cobra"
)

func newTestsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tests",
		Short: "Inspect recorded test summaries",
	}
	cmd.AddCommand(newTestsListCmd(c))
	return cmd
}

func newTestsListCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent test summaries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 || limit > 200 {
				return fmt.Errorf("--limit must be between 1 and 200, got %d", limit)
			}

			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			summaries, err := st.ListSummaries(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list summaries: %w", err)
			}
			if summaries == nil {
				summaries = []*models.TestSummary{}
			}
			return printJSON(cmd.OutOrStdout(), summaries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum summaries to show")
	return cmd
}
