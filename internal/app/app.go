package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bassista/jobsync/internal/auth"
	"github.com/bassista/jobsync/internal/config"
	"github.com/bassista/jobsync/internal/httpclient"
	"github.com/bassista/jobsync/internal/jobboard"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/metrics"
	"github.com/bassista/jobsync/internal/mutator"
	"github.com/bassista/jobsync/internal/repository"
	"github.com/bassista/jobsync/internal/scheduler"
	"github.com/bassista/jobsync/internal/token"
	"github.com/prometheus/client_golang/prometheus"
)

// Hooks are the view's callbacks into the sync layer.
type Hooks struct {
	// OnSessionExpired receives the login entry point after a failed refresh.
	OnSessionExpired func(redirect string)
	// OnMutationFailure is the alert shown when an optimistic change is rolled back.
	OnMutationFailure mutator.FailureFunc
	// HTTPClient replaces the default transport, mostly for tests.
	HTTPClient *http.Client
}

// App is the application container (immutable dependencies + lifecycle context).
type App struct {
	Config   *config.Config
	Repo     repository.Repository
	Tokens   *token.Store
	HTTP     *httpclient.Client
	Auth     *auth.Coordinator
	Session  *auth.Session
	Board    *jobboard.Board
	Metrics  *metrics.Client
	Registry *prometheus.Registry

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

func New(cfg *config.Config, repo repository.Repository, hooks Hooks) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if repo == nil {
		return nil, errors.New("repo is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())

	tokens, err := token.NewStore(ctx, repo)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init token store: %w", err)
	}

	opts := []httpclient.Option{httpclient.WithTimeout(cfg.API.RequestTimeout)}
	if hooks.HTTPClient != nil {
		opts = []httpclient.Option{httpclient.WithHTTPClient(hooks.HTTPClient)}
	}
	client, err := httpclient.New(cfg.API.BaseURL, tokens, opts...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init http client: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewClient(reg)

	coord, err := auth.NewCoordinator(client, tokens, auth.Options{
		RefreshPath:      cfg.API.RefreshPath,
		LoginRedirect:    cfg.API.LoginRedirect,
		OnSessionExpired: hooks.OnSessionExpired,
		RefreshTimeout:   cfg.API.RequestTimeout,
		Metrics:          m,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init auth coordinator: %w", err)
	}

	board := jobboard.NewBoard(coord, jobboard.Options{
		Timeout:   cfg.API.RequestTimeout,
		PageLimit: cfg.API.PageLimit,
		Metrics:   m,
		OnFailure: hooks.OnMutationFailure,
	})

	return &App{
		Config:   cfg,
		Repo:     repo,
		Tokens:   tokens,
		HTTP:     client,
		Auth:     coord,
		Session:  auth.NewSession(client, tokens),
		Board:    board,
		Metrics:  m,
		Registry: reg,
		BaseCtx:  ctx,
		Cancel:   cancel,
	}, nil
}

func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	if a.Board != nil {
		a.Board.Close()
	}
	a.Cancel()
}

// StartWatchers follows the session file (so a logout elsewhere is seen here)
// and, when configured, refreshes every collection periodically.
// The returned channel is closed once the refresher has stopped; it is nil when no refresher runs.
func (a *App) StartWatchers() (<-chan struct{}, error) {
	if a.Config.Session.Watch {
		if err := a.Repo.StartWatcher(a.BaseCtx, a.Tokens); err != nil {
			return nil, fmt.Errorf("start session watcher: %w", err)
		}
	}

	if a.Config.Misc.RefreshInterval <= 0 {
		return nil, nil
	}

	collections := a.Board.Collections()
	targets := make([]scheduler.Target, 0, len(collections))
	for _, c := range collections {
		targets = append(targets, c)
	}
	r := scheduler.NewPollingRefresher(targets, a.Config.Misc.RefreshInterval, a.Tokens.Has)
	logger.WithComponent("app").Debugf("periodic refresh every %v", a.Config.Misc.RefreshInterval)
	return r.Start(a.BaseCtx), nil
}
