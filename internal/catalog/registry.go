package catalog

import (
	"sync"
	"time"
)

// Registry tracks every dispatched Request until it is pruned or drained.
// The mutex is held only for the duration of a sweep, never across I/O.
type Registry struct {
	mu       sync.Mutex
	requests []*Request // dispatch order
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends req. Callers register before starting the worker so a
// bulk cancel can never miss it.
func (r *Registry) Register(req *Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

// Prune drops every finished request and returns how many were removed
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.requests[:0]
	for _, req := range r.requests {
		if !req.Finished() {
			kept = append(kept, req)
		}
	}
	removed := len(r.requests) - len(kept)
	// clear the tail so pruned requests can be collected
	for i := len(kept); i < len(r.requests); i++ {
		r.requests[i] = nil
	}
	r.requests = kept
	return removed
}

// CancelAll flags every live request and returns how many were newly flagged
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, req := range r.requests {
		if req.Cancel() {
			n++
		}
	}
	return n
}

// Len returns the number of registered requests, finished or not
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// Unfinished returns the number of registered requests still running
func (r *Registry) Unfinished() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, req := range r.requests {
		if !req.Finished() {
			n++
		}
	}
	return n
}

// Shutdown cancels everything, then polls every interval until all requests
// have finished and empties the registry. The lock is re-acquired on each
// poll so workers are never blocked by the wait. Nothing may be registered
// once Shutdown has started. It returns how many requests were drained.
func (r *Registry) Shutdown(interval time.Duration) int {
	r.CancelAll()

	for r.Unfinished() > 0 {
		time.Sleep(interval)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.requests)
	clear(r.requests)
	r.requests = nil
	return n
}
