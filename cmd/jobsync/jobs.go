package main

import (
	"fmt"

	"github.com/bassista/jobsync/internal/fetcher"
	"github.com/bassista/jobsync/internal/jobboard"
	"github.com/bassista/jobsync/internal/model"
	"github.com/spf13/cobra"
)

func newJobsCmd(c *cli) *cobra.Command {
	var (
		keyword, location, jobType string
		page, limit                int
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Search job postings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				limit = c.app.Config.API.PageLimit
			}
			if page <= 0 {
				page = 1
			}
			q := fetcher.Query{
				Filters: map[string]string{
					jobboard.FilterKeyword:  keyword,
					jobboard.FilterLocation: location,
					jobboard.FilterJobType:  jobType,
				},
				Page:  page,
				Limit: limit,
			}
			state := c.app.Board.Jobs.Fetch(cmd.Context(), q)
			if err := stateErr(state); err != nil {
				return err
			}
			printJobs(cmd.OutOrStdout(), state.Items)
			if state.HasMore {
				fmt.Fprintf(cmd.OutOrStdout(), "More results: --page %d\n", page+1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "Match title or description")
	cmd.Flags().StringVar(&location, "location", "", "Match location")
	cmd.Flags().StringVar(&jobType, "type", "", "Match job type, e.g. Full-time")
	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (defaults to api.page_limit)")

	return cmd
}

func newAppliedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "applied",
		Short: "List your job applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireRole(model.RoleStudent); err != nil {
				return err
			}
			state := c.app.Board.Applied.Fetch(cmd.Context(), fetcher.Query{})
			if err := stateErr(state); err != nil {
				return err
			}
			printApplications(cmd, state.Items)
			return nil
		},
	}
}

func newApplyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "apply JOB_ID",
		Short: "Apply to a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireRole(model.RoleStudent); err != nil {
				return err
			}
			// the current applications tell whether this job was applied to already
			if err := stateErr(c.app.Board.Applied.Fetch(cmd.Context(), fetcher.Query{})); err != nil {
				return err
			}
			created, err := c.app.Board.ApplyToJob(cmd.Context(), model.Job{ID: args[0]})
			if err != nil {
				return userError(err)
			}
			title := created.Job.Title
			if title == "" {
				title = args[0]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied to %s (application %s, %s).\n", title, created.ID, created.Status)
			return nil
		},
	}
}

func printApplications(cmd *cobra.Command, apps []model.Application) {
	if len(apps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "You have not applied to any job yet.")
		return
	}
	tw := newTable(cmd.OutOrStdout(), "ID", "JOB", "COMPANY", "STATUS", "APPLIED")
	for _, a := range apps {
		row(tw, a.ID, a.Job.Title, a.Job.Company.Name, a.Status, date(a.CreatedAt))
	}
	tw.Flush()
}
