package mutator

import (
	"context"
	"errors"
	"testing"

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/cache"
	"github.com/bassista/jobsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type failureRecorder struct {
	mock.Mock
}

func (f *failureRecorder) OnFailure(id, message string, err error) {
	f.Called(id, message, err)
}

func adminJobs() []model.Job {
	return []model.Job{
		{ID: "41", Title: "SRE", Requirements: []string{"k8s"}},
		{ID: "42", Title: "Backend", Requirements: []string{"go", "sql"}},
		{ID: "43", Title: "Frontend"},
	}
}

func TestMutate_RemoteFailureRestoresSnapshot(t *testing.T) {
	store := cache.NewStore(adminJobs())
	rec := &failureRecorder{}
	m := New[model.Job]("admin_jobs", store, Options{OnFailure: rec.OnFailure})

	before, _ := store.Snapshot()
	serverErr := apierror.FromResponse("DELETE /admin/jobs/42", 500, []byte(`{"message":"Database unavailable"}`))
	rec.On("OnFailure", "42", "Database unavailable", mock.Anything).Once()

	err := m.Mutate(context.Background(), "42", cache.RemoveByID[model.Job]("42"), func(ctx context.Context) error {
		// the local edit is visible before the remote call completes
		_, present := store.Get("42")
		assert.False(t, present)
		assert.True(t, m.Pending("42"))
		return serverErr
	})

	assert.ErrorIs(t, err, serverErr)
	after, _ := store.Snapshot()
	assert.Equal(t, before, after)
	_, present := store.Get("42")
	assert.True(t, present)
	assert.False(t, m.Pending("42"))
	rec.AssertExpectations(t)
}

func TestMutate_RemoteSuccessKeepsTransform(t *testing.T) {
	store := cache.NewStore(adminJobs())
	rec := &failureRecorder{}
	m := New[model.Job]("admin_jobs", store, Options{OnFailure: rec.OnFailure})

	err := m.Mutate(context.Background(), "42", cache.RemoveByID[model.Job]("42"), func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	snap, _ := store.Snapshot()
	assert.Len(t, snap, 2)
	_, present := store.Get("42")
	assert.False(t, present)
	assert.False(t, m.Pending("42"))
	rec.AssertNotCalled(t, "OnFailure", mock.Anything, mock.Anything, mock.Anything)
}

// Rollback for any failure kind returns the store to the pre-transform snapshot.
func TestMutate_RollbackForEveryFailureKind(t *testing.T) {
	failures := map[string]error{
		"network":    apierror.Network("op", errors.New("reset")),
		"validation": apierror.FromResponse("op", 400, []byte(`{"message":"bad"}`)),
		"auth":       apierror.AuthExpired("op", nil),
		"server":     apierror.FromResponse("op", 503, nil),
		"plain":      errors.New("boom"),
	}
	transforms := map[string]func([]model.Job) []model.Job{
		"remove":  cache.RemoveByID[model.Job]("41"),
		"prepend": cache.Prepend(model.Job{ID: "new", Title: "Temp"}),
		"edit": func(items []model.Job) []model.Job {
			items[1].Title = "Edited"
			items[1].Requirements = append(items[1].Requirements, "redis")
			return items
		},
		"clear": func([]model.Job) []model.Job { return nil },
	}

	for fname, failure := range failures {
		for tname, transform := range transforms {
			t.Run(fname+"/"+tname, func(t *testing.T) {
				store := cache.NewStore(adminJobs())
				m := New[model.Job]("jobs", store, Options{})
				before, _ := store.Snapshot()

				err := m.Mutate(context.Background(), "x", transform, func(context.Context) error { return failure })
				assert.Error(t, err)

				after, _ := store.Snapshot()
				assert.Equal(t, before, after)
			})
		}
	}
}

func TestMutate_SecondMutationOnSameEntityRejected(t *testing.T) {
	store := cache.NewStore(adminJobs())
	m := New[model.Job]("admin_jobs", store, Options{})

	release := make(chan struct{})
	inRemote := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- m.Mutate(context.Background(), "42", cache.RemoveByID[model.Job]("42"), func(context.Context) error {
			close(inRemote)
			<-release
			return nil
		})
	}()
	<-inRemote

	versionBefore := store.Version()
	err := m.Mutate(context.Background(), "42", cache.RemoveByID[model.Job]("42"), func(context.Context) error {
		t.Error("remote must not run for a rejected mutation")
		return nil
	})
	assert.ErrorIs(t, err, ErrMutationInFlight)
	assert.Equal(t, versionBefore, store.Version(), "rejected mutation does not touch the store")

	// other entities are independent
	err = m.Mutate(context.Background(), "41", cache.RemoveByID[model.Job]("41"), func(context.Context) error { return nil })
	assert.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, store.Len())
	assert.False(t, m.Pending("42"))
}

// startDelete runs a delete of id whose remote call waits for a result on the returned channel.
func startDelete(t *testing.T, m *Mutator[model.Job], id string) (chan<- error, <-chan error) {
	t.Helper()
	result := make(chan error)
	inRemote := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- m.Mutate(context.Background(), id, cache.RemoveByID[model.Job](id), func(context.Context) error {
			close(inRemote)
			return <-result
		})
	}()
	<-inRemote
	return result, done
}

func TestMutate_OverlappingMutationsRollBackIndependently(t *testing.T) {
	serverErr := apierror.FromResponse("DELETE", 500, nil)

	tests := []struct {
		name       string
		first      error // outcome of the delete of 41
		second     error // outcome of the delete of 42
		secondLast bool  // 42 settles after 41
		want       []string
	}{
		{"first fails, second succeeds", serverErr, nil, true, []string{"41", "43"}},
		{"second succeeds, first fails", serverErr, nil, false, []string{"41", "43"}},
		{"first succeeds, second fails", nil, serverErr, true, []string{"42", "43"}},
		{"both fail", serverErr, serverErr, true, []string{"41", "42", "43"}},
		{"both fail in reverse", serverErr, serverErr, false, []string{"41", "42", "43"}},
		{"both succeed", nil, nil, true, []string{"43"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := cache.NewStore(adminJobs())
			m := New[model.Job]("admin_jobs", store, Options{})

			resultA, doneA := startDelete(t, m, "41")
			resultB, doneB := startDelete(t, m, "42")
			assert.Equal(t, 1, store.Len())

			settle := func(result chan<- error, done <-chan error, outcome error) {
				result <- outcome
				err := <-done
				if outcome == nil {
					assert.NoError(t, err)
				} else {
					assert.Error(t, err)
				}
			}
			if tt.secondLast {
				settle(resultA, doneA, tt.first)
				settle(resultB, doneB, tt.second)
			} else {
				settle(resultB, doneB, tt.second)
				settle(resultA, doneA, tt.first)
			}

			snap, _ := store.Snapshot()
			got := make([]string, len(snap))
			for i, j := range snap {
				got[i] = j.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMutate_RollbackKeepsConcurrentFetch(t *testing.T) {
	store := cache.NewStore(adminJobs())
	m := New[model.Job]("admin_jobs", store, Options{})

	err := m.Mutate(context.Background(), "42", cache.RemoveByID[model.Job]("42"), func(context.Context) error {
		// a refresh replaces the collection while the delete is in flight
		require.NoError(t, store.Replace(append(adminJobs()[1:], model.Job{ID: "44", Title: "QA"})))
		return errors.New("boom")
	})
	assert.Error(t, err)

	_, present := store.Get("44")
	assert.True(t, present, "fetched entity survives the rollback")
	_, present = store.Get("41")
	assert.False(t, present, "rollback does not resurrect entities the fetch dropped")
	assert.Equal(t, 3, store.Len())
}

func TestMutate_FallbackMessageForUnclassifiedError(t *testing.T) {
	store := cache.NewStore(adminJobs())
	rec := &failureRecorder{}
	rec.On("OnFailure", "42", apierror.FallbackMessage, mock.Anything).Once()
	m := New[model.Job]("admin_jobs", store, Options{OnFailure: rec.OnFailure})

	m.Mutate(context.Background(), "42", cache.RemoveByID[model.Job]("42"), func(context.Context) error {
		return errors.New("socket closed")
	})
	rec.AssertExpectations(t)
}
