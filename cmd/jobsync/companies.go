package main

import (
	"fmt"

	"github.com/bassista/jobsync/internal/fetcher"
	"github.com/spf13/cobra"
)

func newCompaniesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := c.app.Board.Companies.Fetch(cmd.Context(), fetcher.Query{})
			if err := stateErr(state); err != nil {
				return err
			}
			if len(state.Items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No companies found.")
				return nil
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "LOCATION", "WEBSITE")
			for _, co := range state.Items {
				row(tw, co.ID, co.Name, co.Location, co.Website)
			}
			tw.Flush()
			return nil
		},
	}
}

func newCompanyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "company COMPANY_ID",
		Short: "Show one company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := c.app.Board.FetchCompany(cmd.Context(), args[0])
			if err := stateErr(state); err != nil {
				return err
			}
			co := state.Items[0]
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", co.Name, co.ID)
			if co.Location != "" {
				fmt.Fprintf(out, "Location: %s\n", co.Location)
			}
			if co.Website != "" {
				fmt.Fprintf(out, "Website:  %s\n", co.Website)
			}
			if co.Description != "" {
				fmt.Fprintf(out, "\n%s\n", co.Description)
			}
			return nil
		},
	}
}
