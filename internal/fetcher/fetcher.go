// Package fetcher loads remote collections into shared stores.
//
// Each Fetcher owns one collection. The most recently issued Fetch wins:
// a result is committed only if no newer Fetch was issued meanwhile and the
// fetcher is still open. Pages replace the collection, they are never appended.
package fetcher

import (
	"context"
	"errors"
	"maps"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/cache"
	"github.com/bassista/jobsync/internal/httpclient"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/metrics"
	"github.com/bassista/jobsync/internal/model"
	"github.com/sirupsen/logrus"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Query is the filter and page of one fetch. Zero Page or Limit are not sent.
type Query struct {
	Filters map[string]string
	Page    int
	Limit   int
}

// Values renders the query as URL parameters, skipping empty filters.
func (q Query) Values() url.Values {
	v := url.Values{}
	for k, val := range q.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func (q Query) clone() Query {
	q.Filters = maps.Clone(q.Filters)
	return q
}

// Doer sends one request; in practice the auth coordinator.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

// Source knows one endpoint: how to ask for a page and how to read the answer.
type Source[T model.Entity] interface {
	Request(q Query) (httpclient.Request, error)
	// Decode parses a 2xx body. Shape deviations are apierror KindParse.
	Decode(resp *httpclient.Response) ([]T, error)
}

// State is what a view renders. Items is a copy of the store.
type State[T model.Entity] struct {
	Status  Status
	Items   []T
	Err     error
	Message string
	HasMore bool
	Query   Query
}

type Options struct {
	// Timeout bounds each fetch so loading cannot outlive the transport. Zero means none.
	Timeout      time.Duration
	DefaultQuery Query
	Metrics      *metrics.Client
}

var ErrClosed = errors.New("fetcher closed")

type Fetcher[T model.Entity] struct {
	name    string
	client  Doer
	source  Source[T]
	store   cache.ReplaceableStore[T]
	timeout time.Duration
	metrics *metrics.Client
	log     *logrus.Entry

	mu        sync.Mutex
	seq       uint64
	closed    bool
	issued    bool
	state     State[T]
	lastQuery Query
}

func New[T model.Entity](name string, client Doer, source Source[T], store cache.ReplaceableStore[T], opts Options) *Fetcher[T] {
	return &Fetcher[T]{
		name:      name,
		client:    client,
		source:    source,
		store:     store,
		timeout:   opts.Timeout,
		metrics:   opts.Metrics,
		log:       logger.WithCollection("fetcher", name),
		lastQuery: opts.DefaultQuery.clone(),
	}
}

func (f *Fetcher[T]) Name() string { return f.name }

// Fetch loads q and, if still the latest request, replaces the collection with the result.
// On failure the collection is left as it was and the error message is recorded.
// The returned state is the fetcher's state after this call, which reflects a newer
// request if this one was superseded.
func (f *Fetcher[T]) Fetch(ctx context.Context, q Query) State[T] {
	q = q.clone()

	f.mu.Lock()
	if f.closed {
		st := f.stateLocked()
		f.mu.Unlock()
		return st
	}
	f.seq++
	mine := f.seq
	f.issued = true
	f.lastQuery = q
	f.state.Status = StatusLoading
	f.state.Query = q
	f.mu.Unlock()

	start := time.Now()
	items, err := f.load(ctx, q)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.closed:
		f.metrics.ObserveFetch(f.name, metrics.FetchDiscarded, 0)
		f.log.Trace("result after close discarded")
		return f.stateLocked()
	case mine != f.seq:
		f.metrics.ObserveFetch(f.name, metrics.FetchSuperseded, 0)
		f.log.Tracef("request %d superseded by %d", mine, f.seq)
		return f.stateLocked()
	}

	if err == nil {
		err = f.store.Replace(items)
	}
	if err != nil {
		f.state.Status = StatusError
		f.state.Err = err
		f.state.Message = apierror.Message(err, apierror.FallbackMessage)
		f.metrics.ObserveFetch(f.name, metrics.FetchError, time.Since(start))
		f.log.Debugf("fetch failed: %v", err)
		return f.stateLocked()
	}

	f.state.Status = StatusSuccess
	f.state.Err = nil
	f.state.Message = ""
	f.state.HasMore = q.Limit > 0 && len(items) == q.Limit
	f.metrics.ObserveFetch(f.name, metrics.FetchSuccess, time.Since(start))
	f.log.Debugf("fetched %d items (page %d)", len(items), q.Page)
	return f.stateLocked()
}

// Refetch re-issues the last query, or the default query if nothing was fetched yet.
func (f *Fetcher[T]) Refetch(ctx context.Context) State[T] {
	f.mu.Lock()
	q := f.lastQuery.clone()
	f.mu.Unlock()
	return f.Fetch(ctx, q)
}

// Refresh is Refetch for periodic callers that only care about failure.
// A collection that was never fetched is left alone.
func (f *Fetcher[T]) Refresh(ctx context.Context) error {
	f.mu.Lock()
	closed, issued := f.closed, f.issued
	f.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if !issued {
		return nil
	}
	return f.Refetch(ctx).Err
}

func (f *Fetcher[T]) State() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

// Close marks the fetcher dead: in-flight and later results are ignored.
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *Fetcher[T]) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fetcher[T]) load(ctx context.Context, q Query) ([]T, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := f.source.Request(q)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if apiErr := apierror.FromResponse(req.String(), resp.Status, resp.Body); apiErr != nil {
		return nil, apiErr
	}
	return f.source.Decode(resp)
}

func (f *Fetcher[T]) stateLocked() State[T] {
	st := f.state
	st.Query = st.Query.clone()
	items, err := f.store.Snapshot()
	if err != nil {
		f.log.Errorf("snapshot: %v", err)
	}
	st.Items = items
	return st
}
