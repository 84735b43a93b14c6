// Package auth wraps authenticated calls with a single token refresh and replay,
// and manages the login session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/httpclient"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Doer sends one request. *httpclient.Client and *Coordinator both implement it.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

// TokenWriter is the part of the token store the coordinator needs.
type TokenWriter interface {
	Get() string
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type phase int

const (
	phaseInitial phase = iota
	phaseRefreshing
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseInitial:
		return "initial"
	case phaseRefreshing:
		return "refreshing"
	default:
		return "done"
	}
}

type Options struct {
	RefreshPath   string
	LoginRedirect string
	// OnSessionExpired is called once per failed refresh with the login entry point.
	OnSessionExpired func(redirect string)
	// RefreshTimeout bounds the shared refresh call, independently of any caller's deadline.
	RefreshTimeout time.Duration
	Metrics        *metrics.Client
}

const defaultRefreshTimeout = 15 * time.Second

var errSessionEnded = errors.New("session ended")

// Coordinator retries a request once after refreshing the token on 401.
type Coordinator struct {
	client        Doer
	tokens        TokenWriter
	refreshPath   string
	loginRedirect string
	onExpired     func(string)
	timeout       time.Duration
	metrics       *metrics.Client
	group         singleflight.Group
	log           *logrus.Entry
}

func NewCoordinator(client Doer, tokens TokenWriter, opts Options) (*Coordinator, error) {
	if client == nil || tokens == nil {
		return nil, errors.New("client and token store are required")
	}
	if opts.RefreshPath == "" {
		opts.RefreshPath = "/auth/refresh-token"
	}
	if opts.LoginRedirect == "" {
		opts.LoginRedirect = "/login"
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = defaultRefreshTimeout
	}
	return &Coordinator{
		client:        client,
		tokens:        tokens,
		refreshPath:   opts.RefreshPath,
		loginRedirect: opts.LoginRedirect,
		onExpired:     opts.OnSessionExpired,
		timeout:       opts.RefreshTimeout,
		metrics:       opts.Metrics,
		log:           logger.WithComponent("auth"),
	}, nil
}

// LoginRedirect is where the caller should send the user after AuthExpired.
func (c *Coordinator) LoginRedirect() string { return c.loginRedirect }

// Do sends req. On a 401 it refreshes the token at most once and replays req
// exactly once, returning the replay's outcome whatever it is.
// If the server refuses the refresh the session is cleared and an AuthExpired
// error is returned. If the refresh endpoint cannot be reached, or ctx ends
// first, a Network error is returned and the token is kept.
func (c *Coordinator) Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	state := phaseInitial
	sentWith := c.tokens.Get()

	resp, err := c.client.Do(ctx, req)
	if err != nil || resp.Status != http.StatusUnauthorized || req.SkipRefresh {
		return resp, err
	}

	state = phaseRefreshing
	c.log.WithField("phase", state).Debugf("%s: 401, refreshing token", req)

	current := c.tokens.Get()
	switch {
	case current != "" && current != sentWith:
		// another call already rotated the token after we sent ours
		c.metrics.ObserveRefresh(metrics.RefreshSkipped)
	case current == "" && sentWith != "":
		// the session ended while our request was in flight
		return nil, apierror.AuthExpired(req.String(), errSessionEnded)
	default:
		if err := c.refresh(ctx, sentWith); err != nil {
			if apierror.IsNetwork(err) {
				return nil, err
			}
			return nil, apierror.AuthExpired(req.String(), err)
		}
	}

	state = phaseDone
	c.log.WithField("phase", state).Debugf("%s: replaying", req)
	return c.client.Do(ctx, req)
}

// refresh collapses concurrent refreshes for the same stale token into one call.
// The shared call runs detached from ctx with its own timeout, so one caller
// giving up neither cancels it for the others nor ends the session.
func (c *Coordinator) refresh(ctx context.Context, stale string) error {
	op := "POST " + c.refreshPath
	ch := c.group.DoChan("refresh:"+stale, func() (any, error) {
		// an earlier refresh for the same token may have settled in the meantime
		switch current := c.tokens.Get(); {
		case current == stale:
		case current == "":
			return nil, errSessionEnded
		default:
			c.metrics.ObserveRefresh(metrics.RefreshSkipped)
			return nil, nil
		}

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		err := c.doRefresh(rctx)
		switch {
		case err == nil:
			c.metrics.ObserveRefresh(metrics.RefreshSuccess)
			return nil, nil
		case apierror.IsNetwork(err):
			c.metrics.ObserveRefresh(metrics.RefreshUnreachable)
			c.log.Warnf("token refresh unreachable, keeping session: %v", err)
			return nil, err
		}
		c.metrics.ObserveRefresh(metrics.RefreshFailure)
		c.expire(rctx, err)
		return nil, err
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return apierror.Network(op, ctx.Err())
	}
}

func (c *Coordinator) doRefresh(ctx context.Context) error {
	op := "POST " + c.refreshPath
	resp, err := c.client.Do(ctx, httpclient.Request{
		Method:      http.MethodPost,
		Path:        c.refreshPath,
		SkipRefresh: true,
	})
	if err != nil {
		return err
	}
	if apiErr := apierror.FromResponse(op, resp.Status, resp.Body); apiErr != nil {
		return apiErr
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := resp.Decode(&body); err != nil {
		return apierror.Parse(op, err)
	}
	if body.AccessToken == "" {
		return apierror.Parse(op, errors.New("refresh response has no accessToken"))
	}

	if err := c.tokens.Set(ctx, body.AccessToken); err != nil {
		// the in-memory token is already rotated; only persistence failed
		c.log.Warnf("refreshed token not persisted: %v", err)
	}
	c.log.Info("access token refreshed")
	return nil
}

func (c *Coordinator) expire(ctx context.Context, cause error) {
	c.log.Warnf("token refresh failed, ending session: %v", cause)
	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Errorf("clear session: %v", err)
	}
	if c.onExpired != nil {
		c.onExpired(c.loginRedirect)
	}
}

// DoJSON sends req through the coordinator, classifies a non-2xx status and
// decodes a 2xx body into out (when out is non-nil).
func DoJSON(ctx context.Context, d Doer, req httpclient.Request, out any) error {
	resp, err := d.Do(ctx, req)
	if err != nil {
		return err
	}
	if apiErr := apierror.FromResponse(req.String(), resp.Status, resp.Body); apiErr != nil {
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return apierror.Parse(req.String(), fmt.Errorf("decode: %w", err))
	}
	return nil
}
