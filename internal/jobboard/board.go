// Package jobboard wires the job-board endpoints to fetchers, stores and mutators.
package jobboard

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/auth"
	"github.com/bassista/jobsync/internal/cache"
	"github.com/bassista/jobsync/internal/fetcher"
	"github.com/bassista/jobsync/internal/httpclient"
	"github.com/bassista/jobsync/internal/metrics"
	"github.com/bassista/jobsync/internal/model"
	"github.com/bassista/jobsync/internal/mutator"
)

const pendingPrefix = "pending-"

// Collection is the lifecycle surface shared by every fetcher on the board.
type Collection interface {
	Name() string
	Refresh(ctx context.Context) error
	Close()
}

type Options struct {
	Timeout   time.Duration
	PageLimit int
	Metrics   *metrics.Client
	OnFailure mutator.FailureFunc
}

// Board holds one store and fetcher per collection. Views read the stores.
type Board struct {
	client fetcher.Doer

	JobStore       *cache.Store[model.Job]
	AppliedStore   *cache.Store[model.Application]
	AdminJobStore  *cache.Store[model.Job]
	CompanyStore   *cache.Store[model.Company]
	CompaniesStore *cache.Store[model.Company]
	ReferralStore  *cache.Store[model.Referral]

	Jobs      *fetcher.Fetcher[model.Job]
	Applied   *fetcher.Fetcher[model.Application]
	AdminJobs *fetcher.Fetcher[model.Job]
	Company   *fetcher.Fetcher[model.Company]
	Companies *fetcher.Fetcher[model.Company]
	Referrals *fetcher.Fetcher[model.Referral]

	adminJobEdits    *mutator.Mutator[model.Job]
	applicationEdits *mutator.Mutator[model.Application]
}

func NewBoard(client fetcher.Doer, opts Options) *Board {
	b := &Board{
		client:         client,
		JobStore:       cache.NewStore[model.Job](nil),
		AppliedStore:   cache.NewStore[model.Application](nil),
		AdminJobStore:  cache.NewStore[model.Job](nil),
		CompanyStore:   cache.NewStore[model.Company](nil),
		CompaniesStore: cache.NewStore[model.Company](nil),
		ReferralStore:  cache.NewStore[model.Referral](nil),
	}

	fopts := fetcher.Options{Timeout: opts.Timeout, Metrics: opts.Metrics}
	jobOpts := fopts
	jobOpts.DefaultQuery = fetcher.Query{Page: 1, Limit: opts.PageLimit}

	b.Jobs = fetcher.New[model.Job]("jobs", client, JobsSource, b.JobStore, jobOpts)
	b.Applied = fetcher.New[model.Application]("applied", client, AppliedSource, b.AppliedStore, fopts)
	b.AdminJobs = fetcher.New[model.Job]("admin_jobs", client, AdminJobsSource, b.AdminJobStore, fopts)
	b.Company = fetcher.New[model.Company]("company", client, CompanySource{}, b.CompanyStore, fopts)
	b.Companies = fetcher.New[model.Company]("companies", client, CompaniesSource, b.CompaniesStore, fopts)
	b.Referrals = fetcher.New[model.Referral]("referrals", client, ReferralsSource, b.ReferralStore, fopts)

	mopts := mutator.Options{OnFailure: opts.OnFailure, Metrics: opts.Metrics}
	b.adminJobEdits = mutator.New[model.Job]("admin_jobs", b.AdminJobStore, mopts)
	b.applicationEdits = mutator.New[model.Application]("applied", b.AppliedStore, mopts)
	return b
}

// Collections lists every fetcher, e.g. for periodic refresh or shutdown.
func (b *Board) Collections() []Collection {
	return []Collection{b.Jobs, b.Applied, b.AdminJobs, b.Company, b.Companies, b.Referrals}
}

func (b *Board) Close() {
	for _, c := range b.Collections() {
		c.Close()
	}
}

// FetchCompany loads one company into CompanyStore.
func (b *Board) FetchCompany(ctx context.Context, id string) fetcher.State[model.Company] {
	return b.Company.Fetch(ctx, fetcher.Query{Filters: map[string]string{FilterID: id}})
}

// DeleteAdminJob removes the job locally, then asks the server; a refusal puts it back.
func (b *Board) DeleteAdminJob(ctx context.Context, id string) error {
	return b.adminJobEdits.Mutate(ctx, id, cache.RemoveByID[model.Job](id), func(ctx context.Context) error {
		return auth.DoJSON(ctx, b.client, httpclient.Request{
			Method: http.MethodDelete,
			Path:   "/admin/jobs/" + url.PathEscape(id),
		}, nil)
	})
}

// AdminJobDeletePending reports whether a delete of id is awaiting the server.
func (b *Board) AdminJobDeletePending(id string) bool {
	return b.adminJobEdits.Pending(id)
}

// ApplyToJob shows a pending application immediately and replaces it with the
// server's record once accepted.
func (b *Board) ApplyToJob(ctx context.Context, job model.Job) (*model.Application, error) {
	if job.ID == "" {
		return nil, &apierror.Error{Kind: apierror.KindValidation, Op: "apply", Message: "Job id is required.", Err: errors.New("empty job id")}
	}
	if b.hasApplied(job.ID) {
		return nil, &apierror.Error{Kind: apierror.KindValidation, Op: "apply", Status: http.StatusConflict, Message: "You have already applied for this job."}
	}

	placeholder := model.Application{
		ID:        pendingPrefix + job.ID,
		Job:       job,
		Status:    model.ApplicationPending,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	var created *model.Application
	err := b.applicationEdits.Mutate(ctx, placeholder.ID, cache.Prepend(placeholder), func(ctx context.Context) error {
		var body struct {
			Application *model.Application `json:"application"`
		}
		err := auth.DoJSON(ctx, b.client, httpclient.Request{
			Method: http.MethodPost,
			Path:   "/applications/" + url.PathEscape(job.ID),
		}, &body)
		if err != nil {
			return err
		}
		if body.Application == nil {
			return apierror.Parse("apply", errors.New("response has no application"))
		}
		created = body.Application
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := b.AppliedStore.Apply(cache.ReplaceByID(placeholder.ID, *created)); err != nil {
		return nil, err
	}
	return created, nil
}

func (b *Board) hasApplied(jobID string) bool {
	items, err := b.AppliedStore.Snapshot()
	if err != nil {
		return false
	}
	for _, a := range items {
		if a.Job.ID == jobID {
			return true
		}
	}
	return false
}
