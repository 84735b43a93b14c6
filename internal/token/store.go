// Package token owns the bearer credential of the current session.
//
// Store is the single source of truth: the HTTP client reads it on every
// request, the refresh coordinator replaces it, login and logout are the only
// other writers. The in-memory value is updated before it is persisted, so a
// Get after Set always observes the new value even if persistence fails.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/model"
	"github.com/bassista/jobsync/internal/repository"
	"golang.org/x/oauth2"
)

var ErrNoToken = errors.New("no session token")

type Store struct {
	mu         sync.RWMutex
	value      string
	user       *model.User
	lastUpdate int64

	persist repository.KeyValueStore
}

// NewStore initializes the store from persistence.
// A stored user that cannot be decoded is dropped, the token is kept.
func NewStore(ctx context.Context, persist repository.KeyValueStore) (*Store, error) {
	if persist == nil {
		return nil, errors.New("token persistence is nil")
	}
	doc, err := persist.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s := &Store{persist: persist}
	s.applyLocked(*doc)
	return s, nil
}

// Get returns the current token, or "" when logged out.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *Store) Has() bool {
	return s.Get() != ""
}

// Set replaces the token. An empty token means logged out and removes it from persistence.
func (s *Store) Set(ctx context.Context, tok string) error {
	s.mu.Lock()
	s.value = tok
	s.mu.Unlock()

	var (
		doc repository.SessionDocument
		err error
	)
	if tok == "" {
		doc, err = s.persist.Remove(ctx, repository.KeyToken)
	} else {
		doc, err = s.persist.Set(ctx, repository.KeyToken, tok)
	}
	if err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.setLastUpdate(doc.Metadata.LastUpdate)
	return nil
}

// SetSession stores the token and user issued at login in one write.
func (s *Store) SetSession(ctx context.Context, tok string, user model.User) error {
	if tok == "" {
		return errors.New("empty token")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	s.value = tok
	u := user
	s.user = &u
	s.mu.Unlock()

	doc, err := s.persist.Update(ctx, func(values map[string]string) {
		values[repository.KeyToken] = tok
		values[repository.KeyUser] = string(raw)
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.setLastUpdate(doc.Metadata.LastUpdate)
	logger.WithComponent("token").Debugf("session stored for %s", user.Email)
	return nil
}

// Clear drops token and user: logout or terminal 401.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.value = ""
	s.user = nil
	s.mu.Unlock()

	doc, err := s.persist.Remove(ctx, repository.KeyToken, repository.KeyUser)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.setLastUpdate(doc.Metadata.LastUpdate)
	logger.WithComponent("token").Debug("session cleared")
	return nil
}

// User returns a copy of the logged-in user, or nil.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token implements oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	v := s.Get()
	if v == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: v, TokenType: "Bearer"}, nil
}

// LastUpdate implements repository.SessionCache.
func (s *Store) LastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Reload implements repository.SessionCache: it adopts a session written by another process.
func (s *Store) Reload(doc repository.SessionDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(doc)
	return nil
}

func (s *Store) applyLocked(doc repository.SessionDocument) {
	s.value, _ = doc.Get(repository.KeyToken)
	s.user = nil
	if raw, ok := doc.Get(repository.KeyUser); ok && raw != "" {
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			logger.WithComponent("token").Warnf("ignoring unreadable stored user: %v", err)
		} else {
			s.user = &u
		}
	}
	s.lastUpdate = doc.Metadata.LastUpdate
}

func (s *Store) setLastUpdate(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts > s.lastUpdate {
		s.lastUpdate = ts
	}
}

var _ oauth2.TokenSource = (*Store)(nil)
var _ repository.SessionCache = (*Store)(nil)
