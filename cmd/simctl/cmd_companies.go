package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/kiranshivaraju/replysim/internal/store"
	"github.com/kiranshivaraju/replysim/pkg/models"
	"github.com/spf13/cobra"
)

func newCompaniesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Manage the company catalog",
	}
	cmd.AddCommand(newCompaniesAddCmd(c))
	cmd.AddCommand(newCompaniesListCmd(c))
	return cmd
}

func newCompaniesAddCmd(c *cli) *cobra.Command {
	var url, description string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a company to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("company name must not be blank")
			}

			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			company := &models.Company{Name: name, URL: url, Description: description}
			if err := st.CreateCompany(cmd.Context(), company); err != nil {
				if errors.Is(err, store.ErrDuplicateKey) {
					return fmt.Errorf("company %q already exists", name)
				}
				return fmt.Errorf("create company: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added company %q (id %d)\n", company.Name, company.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Company website")
	cmd.Flags().StringVar(&description, "description", "", "Short description used for context")
	return cmd
}

func newCompaniesListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List companies in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			companies, err := st.ListCompanies(cmd.Context())
			if err != nil {
				return fmt.Errorf("list companies: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tURL")
			for _, co := range companies {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", co.ID, co.Name, co.URL)
			}
			return tw.Flush()
		},
	}
}
