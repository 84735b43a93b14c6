package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const defaultWatchInterval = 30 * time.Second

func newWatchCmd(c *cli) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep your collections fresh and print what changes",
		Long: `watch loads the collections for your role, refreshes them periodically and
prints a line whenever one changes. Refresh pauses while logged out and
resumes when a login from another terminal lands in the session file.
Stop it with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = c.app.Config.Misc.RefreshInterval
			}
			if interval <= 0 {
				interval = defaultWatchInterval
			}
			c.app.Config.Misc.RefreshInterval = interval
			c.app.Config.Session.Watch = true

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			views := c.viewsFor(c.app.Session.CurrentUser())
			if err := loadViews(ctx, views); err != nil {
				return err
			}

			seen := make([]string, len(views))
			for i, v := range views {
				n, fp := v.fingerprint()
				seen[i] = fp
				fmt.Fprintf(out, "%s %s: %d\n", time.Now().Format(time.TimeOnly), v.name, n)
			}

			stopped, err := c.app.StartWatchers()
			if err != nil {
				return err
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-stopped:
					return nil
				case <-ticker.C:
					for i, v := range views {
						n, fp := v.fingerprint()
						if fp == seen[i] {
							continue
						}
						seen[i] = fp
						fmt.Fprintf(out, "%s %s: %d\n", time.Now().Format(time.TimeOnly), v.name, n)
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (defaults to misc.refresh_interval, then 30s)")

	return cmd
}
