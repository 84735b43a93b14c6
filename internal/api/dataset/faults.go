package dataset

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// Faults makes chosen routes fail on purpose, so clients can exercise
// rollback and error paths against the mock backend.
type Faults struct {
	mu    sync.Mutex
	rules map[string]*fault
}

type fault struct {
	status    int
	remaining int // < 0 means forever
}

func NewFaults() *Faults {
	return &Faults{rules: make(map[string]*fault)}
}

func faultKey(method, route string) string {
	return strings.ToUpper(method) + " " + route
}

// Inject makes the next count requests to method+route (the gin route pattern,
// e.g. "/api/v1/admin/jobs/:id") answer status. count < 0 never expires.
func (f *Faults) Inject(method, route string, status, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[faultKey(method, route)] = &fault{status: status, remaining: count}
}

// Take consumes one injected failure for method+route, if any.
func (f *Faults) Take(method, route string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := faultKey(method, route)
	r, ok := f.rules[key]
	if !ok {
		return 0, false
	}
	if r.remaining > 0 {
		r.remaining--
		if r.remaining == 0 {
			delete(f.rules, key)
		}
	}
	return r.status, true
}

// ParseFaults reads "METHOD /route=STATUS[*COUNT]" rules separated by commas,
// e.g. "DELETE /api/v1/admin/jobs/:id=500*1, GET /api/v1/jobs=503".
func (f *Faults) ParseFaults(rules string) error {
	for _, rule := range strings.Split(rules, ",") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		target, outcome, ok := strings.Cut(rule, "=")
		if !ok {
			return fmt.Errorf("fault %q: missing '='", rule)
		}
		method, route, ok := strings.Cut(strings.TrimSpace(target), " ")
		if !ok || route == "" {
			return fmt.Errorf("fault %q: want 'METHOD /route'", rule)
		}
		statusText, countText, hasCount := strings.Cut(outcome, "*")
		status, err := strconv.Atoi(strings.TrimSpace(statusText))
		if err != nil || status < 400 || status > 599 || http.StatusText(status) == "" {
			return fmt.Errorf("fault %q: invalid status", rule)
		}
		count := -1
		if hasCount {
			if count, err = strconv.Atoi(strings.TrimSpace(countText)); err != nil || count <= 0 {
				return fmt.Errorf("fault %q: invalid count", rule)
			}
		}
		f.Inject(method, strings.TrimSpace(route), status, count)
	}
	return nil
}
