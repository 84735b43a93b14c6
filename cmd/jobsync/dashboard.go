package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/bassista/jobsync/internal/cache"
	"github.com/bassista/jobsync/internal/fetcher"
	"github.com/bassista/jobsync/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// view is one collection shown by dashboard and watch.
type view struct {
	name        string
	fetch       func(ctx context.Context) error
	fingerprint func() (int, string)
}

func newView[T model.Entity](name string, f *fetcher.Fetcher[T], store cache.ReadOnlyStore[T], q fetcher.Query) view {
	return view{
		name: name,
		fetch: func(ctx context.Context) error {
			return stateErr(f.Fetch(ctx, q))
		},
		fingerprint: func() (int, string) {
			items, err := store.Snapshot()
			if err != nil {
				return 0, ""
			}
			ids := make([]string, len(items))
			for i, it := range items {
				ids[i] = it.EntityID()
			}
			return len(items), strings.Join(ids, ",")
		},
	}
}

// viewsFor picks the collections relevant to the logged-in role.
func (c *cli) viewsFor(user *model.User) []view {
	b := c.app.Board
	firstPage := fetcher.Query{Page: 1, Limit: c.app.Config.API.PageLimit}
	views := []view{newView[model.Job]("jobs", b.Jobs, b.JobStore, firstPage)}

	role := model.Role("")
	if user != nil {
		role = user.Role
	}
	switch role {
	case model.RoleStudent:
		views = append(views, newView[model.Application]("applications", b.Applied, b.AppliedStore, fetcher.Query{}))
	case model.RoleRecruiter, model.RoleAdmin:
		views = append(views,
			newView[model.Job]("managed jobs", b.AdminJobs, b.AdminJobStore, fetcher.Query{}),
			newView[model.Company]("companies", b.Companies, b.CompaniesStore, fetcher.Query{}),
		)
	case model.RoleFreelancer:
		views = append(views, newView[model.Referral]("referrals", b.Referrals, b.ReferralStore, fetcher.Query{}))
	default:
		views = append(views, newView[model.Company]("companies", b.Companies, b.CompaniesStore, fetcher.Query{}))
	}
	return views
}

// loadViews fetches every view concurrently; the first failure cancels the rest.
func loadViews(ctx context.Context, views []view) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, v := range views {
		g.Go(func() error {
			if err := v.fetch(ctx); err != nil {
				return fmt.Errorf("%s: %w", v.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func newDashboardCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Load every collection for your role at once",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := c.app.Session.CurrentUser()
			views := c.viewsFor(user)
			if err := loadViews(cmd.Context(), views); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if user != nil {
				fmt.Fprintf(out, "Signed in as %s (%s)\n", displayName(*user), user.Role)
			} else {
				fmt.Fprintln(out, "Not logged in")
			}
			for _, v := range views {
				n, _ := v.fingerprint()
				fmt.Fprintf(out, "  %-13s %d\n", v.name, n)
			}
			if st := c.app.Board.Jobs.State(); st.HasMore {
				fmt.Fprintf(out, "More jobs available: jobsync jobs --page 2\n")
			}
			return nil
		},
	}
}
