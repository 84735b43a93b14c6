package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/logger"
)

// Target is a collection that can re-issue its last fetch.
type Target interface {
	Name() string
	Refresh(ctx context.Context) error
}

// PollingRefresher refetches every target on a fixed interval.
//
// Semantics:
// - A tick is skipped entirely while active reports false (e.g. logged out).
// - An AuthExpired failure ends the tick: the session is gone for every target.
// - The first failure of a streak is logged as a warning, repeats at debug; recovery is logged once.
type PollingRefresher struct {
	targets []Target
	poll    time.Duration
	active  func() bool

	mu       sync.Mutex
	failures map[string]int
}

func NewPollingRefresher(targets []Target, poll time.Duration, active func() bool) *PollingRefresher {
	return &PollingRefresher{
		targets:  targets,
		poll:     poll,
		active:   active,
		failures: map[string]int{},
	}
}

// Start runs the refresher until ctx is cancelled.
// The returned channel is closed when the goroutine has exited.
func (s *PollingRefresher) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	logger.WithComponent("refresh").Debugf("starting polling refresher with interval: %v, targets: %d", s.poll, len(s.targets))
	ticker := time.NewTicker(s.poll)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("refresh").Info("refresher stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
	return done
}

func (s *PollingRefresher) tick(ctx context.Context) {
	if s.active != nil && !s.active() {
		logger.WithComponent("refresh").Tracef("no active session, skipping tick")
		return
	}

	for _, t := range s.targets {
		select {
		case <-ctx.Done():
			logger.WithComponent("refresh").Debugf("tick cancelled")
			return
		default:
		}

		name := t.Name()
		err := t.Refresh(ctx)
		streak := s.record(name, err)

		switch {
		case err == nil && streak > 0:
			logger.WithComponent("refresh").Infof("%s recovered after %d failed refreshes", name, streak)
		case err == nil:
			logger.WithComponent("refresh").Tracef("%s refreshed", name)
		case apierror.IsAuthExpired(err):
			logger.WithComponent("refresh").Warnf("session expired while refreshing %s, skipping remaining targets", name)
			return
		case streak == 1:
			logger.WithComponent("refresh").Warnf("refresh %s failed: %v", name, err)
		default:
			logger.WithComponent("refresh").Debugf("refresh %s still failing (%d): %v", name, streak, err)
		}
	}
}

// record updates the failure streak of name. It returns the streak after a
// failure, or the streak that just ended after a success.
func (s *PollingRefresher) record(name string, err error) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		prev := s.failures[name]
		delete(s.failures, name)
		return prev
	}
	s.failures[name]++
	return s.failures[name]
}

// Failures returns the current failure streak of name.
func (s *PollingRefresher) Failures(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[name]
}
