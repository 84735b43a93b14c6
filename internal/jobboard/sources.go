package jobboard

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/fetcher"
	"github.com/bassista/jobsync/internal/httpclient"
	"github.com/bassista/jobsync/internal/model"
)

// Job search filters understood by GET /jobs.
const (
	FilterKeyword  = "keyword"
	FilterLocation = "location"
	FilterJobType  = "jobType"
	FilterID       = "id"
)

// ListSource reads a collection from a GET endpoint whose envelope holds the array under Field.
type ListSource[T model.Entity] struct {
	Path  string
	Field string
}

func (s ListSource[T]) Request(q fetcher.Query) (httpclient.Request, error) {
	return httpclient.Request{Method: http.MethodGet, Path: s.Path, Query: q.Values()}, nil
}

func (s ListSource[T]) Decode(resp *httpclient.Response) ([]T, error) {
	return fetcher.DecodeField[[]T]("GET "+s.Path, resp, s.Field)
}

// CompanySource reads one company by the "id" filter into a one-element collection.
type CompanySource struct{}

func (CompanySource) Request(q fetcher.Query) (httpclient.Request, error) {
	id := q.Filters[FilterID]
	if id == "" {
		return httpclient.Request{}, &apierror.Error{
			Kind:    apierror.KindValidation,
			Op:      "GET /companies/:id",
			Message: "Company id is required.",
			Err:     errors.New("missing company id"),
		}
	}
	return httpclient.Request{Method: http.MethodGet, Path: "/companies/" + url.PathEscape(id)}, nil
}

func (CompanySource) Decode(resp *httpclient.Response) ([]model.Company, error) {
	c, err := fetcher.DecodeField[model.Company]("GET /companies/:id", resp, "company")
	if err != nil {
		return nil, err
	}
	return []model.Company{c}, nil
}

var (
	JobsSource      = ListSource[model.Job]{Path: "/jobs", Field: "data"}
	AppliedSource   = ListSource[model.Application]{Path: "/applications/my", Field: "applications"}
	AdminJobsSource = ListSource[model.Job]{Path: "/admin/jobs", Field: "jobs"}
	CompaniesSource = ListSource[model.Company]{Path: "/companies", Field: "companies"}
	ReferralsSource = ListSource[model.Referral]{Path: "/freelancer/referrals", Field: "referrals"}
)
