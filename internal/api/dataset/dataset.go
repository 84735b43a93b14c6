// Package dataset is the in-memory state of the mock job-board backend.
package dataset

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/model"
	"github.com/containerd/errdefs"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = fmt.Errorf("incorrect email, password or role: %w", errdefs.ErrUnauthenticated)
	ErrNoToken            = fmt.Errorf("user not authenticated: %w", errdefs.ErrUnauthenticated)
	ErrTokenExpired       = fmt.Errorf("jwt expired: %w", errdefs.ErrUnauthenticated)
	ErrTokenRevoked       = fmt.Errorf("invalid token: %w", errdefs.ErrUnauthenticated)
	ErrJobNotFound        = fmt.Errorf("job not found: %w", errdefs.ErrNotFound)
	ErrCompanyNotFound    = fmt.Errorf("company not found: %w", errdefs.ErrNotFound)
	ErrAlreadyApplied     = fmt.Errorf("you have already applied for this job: %w", errdefs.ErrConflict)
	ErrNotOwner           = fmt.Errorf("you can only manage your own jobs: %w", errdefs.ErrPermissionDenied)
)

type session struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

// JobFilter narrows GET /jobs. Empty fields match everything; matching is case-insensitive.
type JobFilter struct {
	Keyword  string
	Location string
	JobType  string
}

type Dataset struct {
	mu           sync.RWMutex
	accounts     map[string]Account
	companies    []model.Company
	jobs         []model.Job
	applications []OwnedApplication
	referrals    []OwnedReferral
	sessions     map[string]*session

	ttl    time.Duration
	now    func() time.Time
	newID  func() string
	faults *Faults
}

// New validates seed and builds a dataset whose tokens live for ttl.
func New(seed Seed, ttl time.Duration) (*Dataset, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %v", ttl)
	}

	jobsByID := make(map[string]model.Job, len(seed.Jobs))
	for _, j := range seed.Jobs {
		jobsByID[j.ID] = j
	}
	for i, a := range seed.Applications {
		j, ok := jobsByID[a.JobID]
		if !ok {
			return nil, fmt.Errorf("application %s references unknown job %s", a.ID, a.JobID)
		}
		seed.Applications[i].Job = j
		seed.Applications[i].Applicant = a.ApplicantID
	}

	if err := validator.New().Struct(seed); err != nil {
		return nil, fmt.Errorf("validate seed: %w", err)
	}

	accounts := make(map[string]Account, len(seed.Users))
	for _, u := range seed.Users {
		key := strings.ToLower(u.Email)
		if _, dup := accounts[key]; dup {
			return nil, fmt.Errorf("duplicate account %s", u.Email)
		}
		accounts[key] = u
	}

	return &Dataset{
		accounts:     accounts,
		companies:    slices.Clone(seed.Companies),
		jobs:         slices.Clone(seed.Jobs),
		applications: slices.Clone(seed.Applications),
		referrals:    slices.Clone(seed.Referrals),
		sessions:     make(map[string]*session),
		ttl:          ttl,
		now:          time.Now,
		newID:        uuid.NewString,
		faults:       NewFaults(),
	}, nil
}

// Faults exposes the failure-injection table.
func (d *Dataset) Faults() *Faults { return d.faults }

// Login checks credentials and opens a session.
func (d *Dataset) Login(email, password string, role model.Role) (string, model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.accounts[strings.ToLower(email)]
	if !ok || acc.Password != password || acc.Role != role {
		return "", model.User{}, ErrInvalidCredentials
	}
	tok := d.issueLocked(acc.ID)
	logger.WithComponent("dataset").Debugf("login %s", acc.Email)
	return tok, acc.User, nil
}

// Authenticate resolves a bearer token to its user.
func (d *Dataset) Authenticate(tok string) (model.User, error) {
	if tok == "" {
		return model.User{}, ErrNoToken
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.sessions[tok]
	if !ok || s.revoked {
		return model.User{}, ErrTokenRevoked
	}
	if !d.now().Before(s.expiresAt) {
		return model.User{}, ErrTokenExpired
	}
	return d.userLocked(s.userID)
}

// Refresh rotates a known, non-revoked token, even an expired one.
func (d *Dataset) Refresh(tok string) (string, error) {
	if tok == "" {
		return "", ErrNoToken
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[tok]
	if !ok || s.revoked {
		return "", ErrTokenRevoked
	}
	s.revoked = true
	return d.issueLocked(s.userID), nil
}

// Logout revokes tok. Unknown tokens are ignored.
func (d *Dataset) Logout(tok string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sessions[tok]; ok {
		s.revoked = true
	}
}

// Jobs returns the page-th page (1-based) of matching jobs, newest first.
// limit <= 0 returns every match.
func (d *Dataset) Jobs(f JobFilter, page, limit int) []model.Job {
	d.mu.RLock()
	defer d.mu.RUnlock()

	matches := make([]model.Job, 0, len(d.jobs))
	for _, j := range d.jobs {
		if f.match(j) {
			matches = append(matches, j)
		}
	}
	slices.SortStableFunc(matches, func(a, b model.Job) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return paginate(matches, page, limit)
}

func (f JobFilter) match(j model.Job) bool {
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		if !strings.Contains(strings.ToLower(j.Title), kw) && !strings.Contains(strings.ToLower(j.Description), kw) {
			return false
		}
	}
	if f.Location != "" && !strings.EqualFold(j.Location, f.Location) {
		return false
	}
	if f.JobType != "" && !strings.EqualFold(j.JobType, f.JobType) {
		return false
	}
	return true
}

func paginate(items []model.Job, page, limit int) []model.Job {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []model.Job{}
	}
	return items[start:min(start+limit, len(items))]
}

// ApplicationsOf lists the user's applications, newest first.
func (d *Dataset) ApplicationsOf(userID string) []model.Application {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []model.Application{}
	for _, a := range d.applications {
		if a.ApplicantID == userID {
			out = append(out, a.Application)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Application) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

// Apply records an application of userID to jobID.
func (d *Dataset) Apply(userID, jobID string) (model.Application, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := slices.IndexFunc(d.jobs, func(j model.Job) bool { return j.ID == jobID })
	if idx < 0 {
		return model.Application{}, ErrJobNotFound
	}
	for _, a := range d.applications {
		if a.ApplicantID == userID && a.JobID == jobID {
			return model.Application{}, ErrAlreadyApplied
		}
	}

	app := OwnedApplication{
		Application: model.Application{
			ID:        d.newID(),
			Job:       d.jobs[idx],
			Applicant: userID,
			Status:    model.ApplicationPending,
			CreatedAt: d.now().UTC(),
		},
		ApplicantID: userID,
		JobID:       jobID,
	}
	d.applications = append(d.applications, app)
	return app.Application, nil
}

// JobsManagedBy lists every job for admins, and a recruiter's own jobs otherwise.
func (d *Dataset) JobsManagedBy(u model.User) []model.Job {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []model.Job{}
	for _, j := range d.jobs {
		if u.Role == model.RoleAdmin || j.CreatedBy == u.ID {
			out = append(out, j)
		}
	}
	return out
}

// DeleteJob removes a job and its applications.
func (d *Dataset) DeleteJob(u model.User, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := slices.IndexFunc(d.jobs, func(j model.Job) bool { return j.ID == id })
	if idx < 0 {
		return ErrJobNotFound
	}
	if u.Role != model.RoleAdmin && d.jobs[idx].CreatedBy != u.ID {
		return ErrNotOwner
	}
	d.jobs = slices.Delete(d.jobs, idx, idx+1)
	d.applications = slices.DeleteFunc(d.applications, func(a OwnedApplication) bool { return a.JobID == id })
	return nil
}

func (d *Dataset) Companies() []model.Company {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.companies)
}

func (d *Dataset) Company(id string) (model.Company, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Company{}, ErrCompanyNotFound
}

// ReferralsOf lists the referrals submitted by a freelancer.
func (d *Dataset) ReferralsOf(agentID string) []model.Referral {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []model.Referral{}
	for _, r := range d.referrals {
		if r.AgentID == agentID {
			out = append(out, r.Referral)
		}
	}
	return out
}

func (d *Dataset) issueLocked(userID string) string {
	tok := d.newID()
	d.sessions[tok] = &session{userID: userID, expiresAt: d.now().Add(d.ttl)}
	return tok
}

func (d *Dataset) userLocked(id string) (model.User, error) {
	for _, acc := range d.accounts {
		if acc.ID == id {
			return acc.User, nil
		}
	}
	return model.User{}, ErrTokenRevoked
}
