package main

import (
	"fmt"
	"time"

	"github.com/kiranshivaraju/replysim/internal/llm/factory"
	"github.com/kiranshivaraju/replysim/internal/simulation"
	"github.com/spf13/cobra"
)

func newRunCmd(c *cli) *cobra.Command {
	var (
		emails      int
		concurrency int
		company     string
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run and summarize one batch of simulated emails",
		Long: `Run --emails simulation tasks with at most --concurrency in flight, then
summarize the runs that were produced and print the summary as JSON.

--timeout stops admitting new tasks once it elapses; tasks already running
are allowed to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			generator, judge, err := factory.NewProviders(ctx, c.cfg.LLM)
			if err != nil {
				return fmt.Errorf("create llm providers: %w", err)
			}

			corpus, err := simulation.LoadScenarios(c.cfg.Simulation.ScenariosFile)
			if err != nil {
				return fmt.Errorf("load scenarios: %w", err)
			}
			scenarios, err := simulation.NewScenarioSource(corpus)
			if err != nil {
				return fmt.Errorf("load scenarios: %w", err)
			}

			limits := c.cfg.Simulation
			if cmd.Flags().Changed("timeout") {
				limits.BatchTimeout = timeout
			}

			deps := simulation.ServiceDeps{
				Store:       st,
				Generator:   generator,
				Judge:       judge,
				Scenarios:   scenarios,
				Limits:      limits,
				CallTimeout: c.cfg.LLM.InferenceTimeout,
				Logger:      c.logger,
			}
			if rc := c.openCache(ctx); rc != nil {
				defer rc.Close()
				deps.Cache = rc
			}

			result, err := simulation.NewService(deps).RunTest(ctx, simulation.TestRequest{
				NumEmails:   emails,
				Concurrency: concurrency,
				CompanyName: company,
			})
			if err != nil {
				if result != nil && result.Batch != nil {
					printJSON(cmd.ErrOrStderr(), result.Batch)
				}
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().IntVarP(&emails, "emails", "n", 1, "Number of simulated emails")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "Maximum tasks in flight")
	cmd.Flags().StringVar(&company, "company", "", "Pin every task to this company instead of drawing from the catalog")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop admitting new tasks after this long (0 disables)")
	return cmd
}
