package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/httpclient"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/model"
	"github.com/go-playground/validator/v10"
)

const invalidCredentialsMessage = "Incorrect email, password or role."

// SessionTokens is the part of the token store used at login and logout.
type SessionTokens interface {
	Has() bool
	User() *model.User
	SetSession(ctx context.Context, token string, user model.User) error
	Clear(ctx context.Context) error
}

type Credentials struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=student recruiter admin freelancer"`
}

type Session struct {
	client    Doer
	tokens    SessionTokens
	validator *validator.Validate
}

func NewSession(client Doer, tokens SessionTokens) *Session {
	return &Session{client: client, tokens: tokens, validator: validator.New()}
}

type loginResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	AccessToken string      `json:"accessToken"`
	User        *model.User `json:"user"`
}

// Login exchanges credentials for a token and stores the session.
func (s *Session) Login(ctx context.Context, creds Credentials) (*model.User, error) {
	if err := s.validator.Struct(creds); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindValidation, Op: "login", Message: "Email, password and role are required.", Err: err}
	}

	req := httpclient.Request{Method: http.MethodPost, Path: "/auth/login", Body: creds, SkipRefresh: true}
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusUnauthorized {
		// a 401 here means bad credentials, not an expired session
		msg := apierror.MessageFromBody(resp.Body)
		if msg == "" {
			msg = invalidCredentialsMessage
		}
		return nil, &apierror.Error{Kind: apierror.KindValidation, Op: req.String(), Status: resp.Status, Message: msg}
	}
	if apiErr := apierror.FromResponse(req.String(), resp.Status, resp.Body); apiErr != nil {
		return nil, apiErr
	}

	var body loginResponse
	if err := resp.Decode(&body); err != nil {
		return nil, apierror.Parse(req.String(), err)
	}
	if !body.Success || body.AccessToken == "" || body.User == nil {
		return nil, apierror.Parse(req.String(), errors.New("login response missing token or user"))
	}

	if err := s.tokens.SetSession(ctx, body.AccessToken, *body.User); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	logger.WithComponent("auth").Infof("logged in as %s (%s)", body.User.Email, body.User.Role)
	return body.User, nil
}

// Logout tells the backend (best effort) and always clears the local session.
func (s *Session) Logout(ctx context.Context) error {
	if s.tokens.Has() {
		req := httpclient.Request{Method: http.MethodPost, Path: "/auth/logout", SkipRefresh: true}
		if resp, err := s.client.Do(ctx, req); err != nil {
			logger.WithComponent("auth").Warnf("logout request failed: %v", err)
		} else if !resp.OK() {
			logger.WithComponent("auth").Debugf("logout returned status %d", resp.Status)
		}
	}
	return s.tokens.Clear(ctx)
}

// CurrentUser returns the logged-in user, or nil.
func (s *Session) CurrentUser() *model.User {
	if !s.tokens.Has() {
		return nil
	}
	return s.tokens.User()
}
