package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/bassista/jobsync/internal/earnings"
	"github.com/bassista/jobsync/internal/fetcher"
	"github.com/bassista/jobsync/internal/model"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newReferralsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "referrals",
		Short: "List your referrals (freelancer)",
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := c.fetchReferrals(cmd)
			if err != nil {
				return err
			}
			printReferrals(cmd, refs)
			return nil
		},
	}
}

func newEarningsCmd(c *cli) *cobra.Command {
	var (
		status, payout, from, to, search string
	)

	cmd := &cobra.Command{
		Use:   "earnings",
		Short: "Summarize referral commissions (freelancer)",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseEarningsFilter(status, payout, from, to, search)
			if err != nil {
				return err
			}
			refs, err := c.fetchReferrals(cmd)
			if err != nil {
				return err
			}

			selected := earnings.Select(refs, f)
			s := earnings.Summarize(selected)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total earned: %s\n", money(s.TotalEarned))
			fmt.Fprintf(out, "Paid:         %s\n", money(s.Paid))
			fmt.Fprintf(out, "Pending:      %s\n", money(s.Pending))
			fmt.Fprintf(out, "Placements:   %d of %d referrals\n", s.Placements, s.Referrals)

			statuses := make([]string, 0, len(s.ByStatus))
			for st := range s.ByStatus {
				statuses = append(statuses, string(st))
			}
			slices.Sort(statuses)
			for _, st := range statuses {
				fmt.Fprintf(out, "  %-13s %d\n", st, s.ByStatus[model.ReferralStatus(st)])
			}
			if len(selected) > 0 {
				fmt.Fprintln(out)
				printReferrals(cmd, selected)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Referral status: submitted, interviewing, placed or rejected")
	cmd.Flags().StringVar(&payout, "payout", "", "Payout status: pending or paid")
	cmd.Flags().StringVar(&from, "from", "", "Placed on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Placed on or before (YYYY-MM-DD)")
	cmd.Flags().StringVar(&search, "search", "", "Match candidate, job or company")

	return cmd
}

func (c *cli) fetchReferrals(cmd *cobra.Command) ([]model.Referral, error) {
	if _, err := c.requireRole(model.RoleFreelancer); err != nil {
		return nil, err
	}
	state := c.app.Board.Referrals.Fetch(cmd.Context(), fetcher.Query{})
	if err := stateErr(state); err != nil {
		return nil, err
	}
	return state.Items, nil
}

func parseEarningsFilter(status, payout, from, to, search string) (earnings.Filter, error) {
	f := earnings.Filter{
		Status: model.ReferralStatus(status),
		Payout: model.PayoutStatus(payout),
		Search: search,
	}
	switch f.Status {
	case "", model.ReferralSubmitted, model.ReferralInterviewing, model.ReferralPlaced, model.ReferralRejected:
	default:
		return f, fmt.Errorf("invalid --status %q", status)
	}
	switch f.Payout {
	case "", model.PayoutPending, model.PayoutPaid:
	default:
		return f, fmt.Errorf("invalid --payout %q", payout)
	}
	var err error
	if from != "" {
		if f.From, err = time.Parse(dateLayout, from); err != nil {
			return f, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if to != "" {
		if f.To, err = time.Parse(dateLayout, to); err != nil {
			return f, fmt.Errorf("invalid --to: %w", err)
		}
		// inclusive of the whole day
		f.To = f.To.Add(24*time.Hour - time.Nanosecond)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("--to is before --from")
	}
	return f, nil
}

func printReferrals(cmd *cobra.Command, refs []model.Referral) {
	if len(refs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No referrals found.")
		return
	}
	tw := newTable(cmd.OutOrStdout(), "ID", "CANDIDATE", "JOB", "COMPANY", "STATUS", "COMMISSION", "PAYOUT")
	for _, r := range refs {
		commission := "-"
		if c := earnings.Commission(r); c > 0 {
			commission = money(c)
		}
		row(tw, r.ID, r.CandidateName, r.JobTitle, r.CompanyName, r.Status, commission, r.PayoutStatus)
	}
	tw.Flush()
}
