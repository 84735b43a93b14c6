// Command jobsync is a terminal client for the job board. It keeps the session
// token on disk, refreshes it transparently and renders each collection the way
// the web views do.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bassista/jobsync/internal/app"
	"github.com/bassista/jobsync/internal/config"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/repository"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	loadConfig func() (*config.Config, error)
	out        io.Writer
	errOut     io.Writer
}

// cli carries the global flags and the client app built for the running command.
type cli struct {
	opts rootOptions

	baseURL     string
	sessionFile string
	logLevel    string

	app *app.App
}

func newRootCmd(opts rootOptions) *cobra.Command {
	c := &cli{opts: opts}

	root := &cobra.Command{
		Use:   "jobsync",
		Short: "Job board client",
		Long: `jobsync talks to the job board API: search jobs, apply, manage postings
and follow referral earnings. The session is stored on disk and shared by
every jobsync process of the same user.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.app.Shutdown()
		},
	}
	root.SetOut(opts.out)
	root.SetErr(opts.errOut)

	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "API base URL (overrides api.base_url)")
	root.PersistentFlags().StringVar(&c.sessionFile, "session-file", "", "Path to the session file (overrides session.file_path)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (overrides misc.log_level)")

	root.AddCommand(newLoginCmd(c))
	root.AddCommand(newLogoutCmd(c))
	root.AddCommand(newWhoamiCmd(c))
	root.AddCommand(newJobsCmd(c))
	root.AddCommand(newAppliedCmd(c))
	root.AddCommand(newApplyCmd(c))
	root.AddCommand(newAdminCmd(c))
	root.AddCommand(newCompaniesCmd(c))
	root.AddCommand(newCompanyCmd(c))
	root.AddCommand(newReferralsCmd(c))
	root.AddCommand(newEarningsCmd(c))
	root.AddCommand(newDashboardCmd(c))
	root.AddCommand(newWatchCmd(c))

	return root
}

func (c *cli) setup() error {
	cfg, err := c.opts.loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if c.baseURL != "" {
		cfg.API.BaseURL = strings.TrimRight(c.baseURL, "/")
	}
	if c.sessionFile != "" {
		cfg.Session.FilePath = c.sessionFile
	}
	level := cfg.Misc.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	if level != "" {
		if err := logger.SetLevel(level); err != nil {
			logger.WithComponent("main").Warnf("invalid log level '%s': %v", level, err)
		}
	}

	repo, err := repository.NewJSONRepository(cfg.Session.FilePath)
	if err != nil {
		return fmt.Errorf("cannot init session file: %w", err)
	}

	a, err := app.New(cfg, repo, app.Hooks{
		OnSessionExpired: func(redirect string) {
			fmt.Fprintf(c.opts.errOut, "Session expired. Please log in again (%s).\n", redirect)
		},
		OnMutationFailure: func(id, message string, _ error) {
			fmt.Fprintf(c.opts.errOut, "Change to %s was undone: %s\n", id, message)
		},
	})
	if err != nil {
		return fmt.Errorf("cannot init app: %w", err)
	}
	c.app = a
	return nil
}

func main() {
	root := newRootCmd(rootOptions{
		loadConfig: config.LoadConfig,
		out:        os.Stdout,
		errOut:     os.Stderr,
	})
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
