// Package mutator applies local edits to a collection before the server confirms them,
// and rolls them back when the server refuses.
package mutator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/cache"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/metrics"
	"github.com/bassista/jobsync/internal/model"
	"github.com/sirupsen/logrus"
)

// ErrMutationInFlight is returned when the entity already has a pending mutation.
var ErrMutationInFlight = errors.New("a change to this item is already in progress")

// FailureFunc is told about every rolled-back mutation with a user-facing message.
type FailureFunc func(entityID, message string, err error)

type Options struct {
	OnFailure FailureFunc
	Metrics   *metrics.Client
}

type Mutator[T model.Entity] struct {
	name      string
	store     cache.MutableStore[T]
	onFailure FailureFunc
	metrics   *metrics.Client
	log       *logrus.Entry

	mu      sync.Mutex
	pending map[string]struct{}
}

func New[T model.Entity](name string, store cache.MutableStore[T], opts Options) *Mutator[T] {
	return &Mutator[T]{
		name:      name,
		store:     store,
		onFailure: opts.OnFailure,
		metrics:   opts.Metrics,
		log:       logger.WithCollection("mutator", name),
		pending:   make(map[string]struct{}),
	}
}

// Mutate applies transform, then runs remote.
// If remote fails, only the entities transform touched go back to their prior
// state; edits made meanwhile by other mutations or fetches survive. OnFailure
// is called and the error returned.
// The transform is visible in the store before remote is dispatched.
func (m *Mutator[T]) Mutate(ctx context.Context, entityID string, transform func([]T) []T, remote func(ctx context.Context) error) error {
	if !m.begin(entityID) {
		m.metrics.ObserveMutation(m.name, metrics.MutationRejected)
		return fmt.Errorf("%s %s: %w", m.name, entityID, ErrMutationInFlight)
	}
	defer m.end(entityID)

	changes, err := m.store.Edit(transform)
	if err != nil {
		return fmt.Errorf("apply %s: %w", m.name, err)
	}

	remoteErr := remote(ctx)
	if remoteErr == nil {
		m.metrics.ObserveMutation(m.name, metrics.MutationCommitted)
		m.log.Debugf("mutation on %s committed", entityID)
		return nil
	}

	if err := m.store.Revert(changes); err != nil {
		m.log.Errorf("rollback of %s failed: %v", entityID, err)
		return errors.Join(remoteErr, err)
	}
	m.metrics.ObserveMutation(m.name, metrics.MutationRolledBack)
	m.log.Infof("mutation on %s rolled back: %v", entityID, remoteErr)

	if m.onFailure != nil {
		m.onFailure(entityID, apierror.Message(remoteErr, apierror.FallbackMessage), remoteErr)
	}
	return remoteErr
}

// Pending reports whether entityID has a mutation awaiting the server.
func (m *Mutator[T]) Pending(entityID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[entityID]
	return ok
}

func (m *Mutator[T]) begin(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[id]; ok {
		return false
	}
	m.pending[id] = struct{}{}
	return true
}

func (m *Mutator[T]) end(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, id)
}
