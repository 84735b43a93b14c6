package main

import (
	"fmt"

	"github.com/bassista/jobsync/internal/fetcher"
	"github.com/bassista/jobsync/internal/model"
	"github.com/spf13/cobra"
)

func newAdminCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage job postings (recruiter and admin)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// cobra runs only the closest persistent pre-run
			if err := c.setup(); err != nil {
				return err
			}
			_, err := c.requireRole(model.RoleAdmin, model.RoleRecruiter)
			return err
		},
	}
	cmd.AddCommand(newAdminJobsCmd(c))
	cmd.AddCommand(newAdminDeleteCmd(c))
	return cmd
}

func newAdminJobsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List the jobs you manage",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := c.app.Board.AdminJobs.Fetch(cmd.Context(), fetcher.Query{})
			if err := stateErr(state); err != nil {
				return err
			}
			printJobs(cmd.OutOrStdout(), state.Items)
			return nil
		},
	}
}

func newAdminDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete JOB_ID",
		Short: "Delete a job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := c.app.Board.AdminJobs.Fetch(cmd.Context(), fetcher.Query{})
			if err := stateErr(state); err != nil {
				return err
			}
			if _, ok := c.app.Board.AdminJobStore.Get(args[0]); !ok {
				return fmt.Errorf("job %s is not one of your postings", args[0])
			}
			if err := c.app.Board.DeleteAdminJob(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s deleted, %d remaining.\n", args[0], c.app.Board.AdminJobStore.Len())
			return nil
		},
	}
}
