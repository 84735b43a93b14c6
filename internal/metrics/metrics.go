// Package metrics records prometheus counters for the sync layer.
// A nil *Client is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jobsync"

// Fetch outcomes.
const (
	FetchSuccess    = "success"
	FetchError      = "error"
	FetchSuperseded = "superseded"
	FetchDiscarded  = "discarded"
)

// Refresh outcomes.
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	RefreshSkipped = "skipped"
	// the refresh endpoint could not be reached; the session is kept
	RefreshUnreachable = "unreachable"
)

// Mutation outcomes.
const (
	MutationCommitted  = "committed"
	MutationRolledBack = "rolled_back"
	MutationRejected   = "rejected"
)

type Client struct {
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	refreshes     *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	requests      *prometheus.CounterVec
}

// NewClient registers the collectors on reg. Passing nil uses a fresh private registry.
func NewClient(reg prometheus.Registerer) *Client {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Client{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Collection fetches by collection and outcome.",
		}, []string{"collection", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of collection fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refresh_total",
			Help:      "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutation_total",
			Help:      "Optimistic mutations by collection and outcome.",
		}, []string{"collection", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by route and status code.",
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(c.fetches, c.fetchDuration, c.refreshes, c.mutations, c.requests)
	return c
}

func (c *Client) ObserveFetch(collection, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.fetches.WithLabelValues(collection, outcome).Inc()
	if outcome == FetchSuccess || outcome == FetchError {
		c.fetchDuration.WithLabelValues(collection).Observe(d.Seconds())
	}
}

func (c *Client) ObserveRefresh(outcome string) {
	if c == nil {
		return
	}
	c.refreshes.WithLabelValues(outcome).Inc()
}

func (c *Client) ObserveMutation(collection, outcome string) {
	if c == nil {
		return
	}
	c.mutations.WithLabelValues(collection, outcome).Inc()
}

// ObserveRequest is used by the mock API middleware.
func (c *Client) ObserveRequest(method, route, code string) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, route, code).Inc()
}
