package route

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/app"
	"github.com/bassista/jobsync/internal/auth"
	"github.com/bassista/jobsync/internal/config"
	"github.com/bassista/jobsync/internal/fetcher"
	"github.com/bassista/jobsync/internal/metrics"
	"github.com/bassista/jobsync/internal/model"
	"github.com/bassista/jobsync/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookRecorder captures the view callbacks of a client app.
type hookRecorder struct {
	mu        sync.Mutex
	redirects []string
	failures  []string
}

func (h *hookRecorder) hooks() app.Hooks {
	return app.Hooks{
		OnSessionExpired: func(redirect string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.redirects = append(h.redirects, redirect)
		},
		OnMutationFailure: func(id, message string, err error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.failures = append(h.failures, id+": "+message)
		},
	}
}

func (h *hookRecorder) snapshot() (redirects, failures []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.redirects...), append([]string(nil), h.failures...)
}

type mockServer struct {
	*httptest.Server
	data *dataset.Dataset
}

func newMockServer(t *testing.T, ttl time.Duration) *mockServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	data, err := dataset.New(dataset.DefaultSeed(), ttl)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	r := gin.New()
	SetupRoutes(r, Deps{
		Data:     data,
		Server:   config.ServerConfig{RequestTimeout: 2 * time.Second},
		Metrics:  metrics.NewClient(reg),
		Gatherer: reg,
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &mockServer{Server: srv, data: data}
}

func newClientApp(t *testing.T, srv *mockServer, rec *hookRecorder) *app.App {
	t.Helper()
	cfg := &config.Config{
		API: config.APIConfig{
			BaseURL:        srv.URL + APIPrefix,
			RequestTimeout: 2 * time.Second,
			RefreshPath:    "/auth/refresh-token",
			LoginRedirect:  "/login",
			PageLimit:      6,
		},
	}
	a, err := app.New(cfg, repository.NewMemoryRepository(nil), rec.hooks())
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)
	return a
}

func login(t *testing.T, a *app.App, email string, role model.Role) {
	t.Helper()
	_, err := a.Session.Login(context.Background(), auth.Credentials{Email: email, Password: "password", Role: role})
	require.NoError(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newMockServer(t, time.Minute)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + APIPrefix + "/jobs")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `jobsync_http_requests_total{code="200",method="GET",route="/api/v1/jobs"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	srv := newMockServer(t, time.Minute)

	resp, err := http.Get(srv.URL + "/api/v1/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEndToEnd_JobPagesReplace(t *testing.T) {
	srv := newMockServer(t, time.Minute)
	a := newClientApp(t, srv, &hookRecorder{})
	ctx := context.Background()

	first := a.Board.Jobs.Fetch(ctx, fetcher.Query{Page: 1, Limit: 6})
	require.Equal(t, fetcher.StatusSuccess, first.Status, first.Message)
	assert.Len(t, first.Items, 6)
	assert.True(t, first.HasMore)

	second := a.Board.Jobs.Fetch(ctx, fetcher.Query{Page: 2, Limit: 6})
	require.Equal(t, fetcher.StatusSuccess, second.Status, second.Message)
	assert.Len(t, second.Items, 3)
	assert.False(t, second.HasMore)
	assert.Equal(t, 3, a.Board.JobStore.Len(), "a new page replaces the previous one")
}

func TestEndToEnd_LoginFailure(t *testing.T) {
	srv := newMockServer(t, time.Minute)
	a := newClientApp(t, srv, &hookRecorder{})

	_, err := a.Session.Login(context.Background(), auth.Credentials{Email: "student@example.com", Password: "wrong", Role: model.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
	assert.False(t, a.Tokens.Has())
}

func TestEndToEnd_ExpiredTokenIsRefreshedAndReplayed(t *testing.T) {
	ttl := 300 * time.Millisecond
	srv := newMockServer(t, ttl)
	rec := &hookRecorder{}
	a := newClientApp(t, srv, rec)
	ctx := context.Background()

	login(t, a, "student@example.com", model.RoleStudent)
	stale := a.Tokens.Get()

	time.Sleep(ttl + 100*time.Millisecond)

	state := a.Board.Applied.Fetch(ctx, fetcher.Query{})
	require.Equal(t, fetcher.StatusSuccess, state.Status, state.Message)
	assert.Len(t, state.Items, 1)
	assert.NotEqual(t, stale, a.Tokens.Get(), "the token was rotated")
	assert.True(t, a.Tokens.Has())

	redirects, _ := rec.snapshot()
	assert.Empty(t, redirects)
}

func TestEndToEnd_RevokedSessionExpires(t *testing.T) {
	srv := newMockServer(t, time.Minute)
	rec := &hookRecorder{}
	a := newClientApp(t, srv, rec)
	ctx := context.Background()

	login(t, a, "freelancer@example.com", model.RoleFreelancer)
	srv.data.Logout(a.Tokens.Get())

	state := a.Board.Referrals.Fetch(ctx, fetcher.Query{})
	assert.Equal(t, fetcher.StatusError, state.Status)
	assert.True(t, apierror.IsAuthExpired(state.Err))
	assert.False(t, a.Tokens.Has())
	assert.Nil(t, a.Session.CurrentUser())

	redirects, _ := rec.snapshot()
	assert.Equal(t, []string{"/login"}, redirects)
}

func TestEndToEnd_DeleteRollsBackOnServerError(t *testing.T) {
	srv := newMockServer(t, time.Minute)
	rec := &hookRecorder{}
	a := newClientApp(t, srv, rec)
	ctx := context.Background()

	login(t, a, "recruiter@example.com", model.RoleRecruiter)
	state := a.Board.AdminJobs.Fetch(ctx, fetcher.Query{})
	require.Equal(t, fetcher.StatusSuccess, state.Status, state.Message)
	before, err := a.Board.AdminJobStore.Snapshot()
	require.NoError(t, err)
	require.NotEmpty(t, before)

	srv.data.Faults().Inject(http.MethodDelete, APIPrefix+"/admin/jobs/:id", http.StatusInternalServerError, 1)

	err = a.Board.DeleteAdminJob(ctx, before[0].ID)
	require.Error(t, err)
	after, err := a.Board.AdminJobStore.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, failures := rec.snapshot()
	assert.Equal(t, []string{before[0].ID + ": Internal Server Error."}, failures)

	// the fault was armed once: the retry goes through
	require.NoError(t, a.Board.DeleteAdminJob(ctx, before[0].ID))
	assert.Equal(t, len(before)-1, a.Board.AdminJobStore.Len())

	again := a.Board.AdminJobs.Refetch(ctx)
	assert.Len(t, again.Items, len(before)-1)
}

func TestEndToEnd_ApplyAndCompanies(t *testing.T) {
	srv := newMockServer(t, time.Minute)
	a := newClientApp(t, srv, &hookRecorder{})
	ctx := context.Background()

	login(t, a, "student@example.com", model.RoleStudent)
	require.Equal(t, fetcher.StatusSuccess, a.Board.Applied.Fetch(ctx, fetcher.Query{}).Status)

	created, err := a.Board.ApplyToJob(ctx, model.Job{ID: "j-2"})
	require.NoError(t, err)
	assert.NotContains(t, created.ID, "pending-")
	assert.Equal(t, 2, a.Board.AppliedStore.Len())

	company := a.Board.FetchCompany(ctx, "c-acme")
	require.Equal(t, fetcher.StatusSuccess, company.Status, company.Message)
	assert.Equal(t, "Acme", company.Items[0].Name)

	missing := a.Board.FetchCompany(ctx, "c-nope")
	assert.Equal(t, fetcher.StatusError, missing.Status)
	assert.Equal(t, "Company not found.", missing.Message)

	// a student may not use the admin endpoints
	admin := a.Board.AdminJobs.Fetch(ctx, fetcher.Query{})
	assert.Equal(t, fetcher.StatusError, admin.Status)
	assert.Equal(t, "Access denied.", admin.Message)
}

func TestEndToEnd_Logout(t *testing.T) {
	srv := newMockServer(t, time.Minute)
	a := newClientApp(t, srv, &hookRecorder{})
	ctx := context.Background()

	login(t, a, "admin@example.com", model.RoleAdmin)
	tok := a.Tokens.Get()
	require.NoError(t, a.Session.Logout(ctx))
	assert.False(t, a.Tokens.Has())

	_, err := srv.data.Authenticate(tok)
	assert.Error(t, err, "logout revokes the token server-side")
}
