package catalog

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Operation identifies which request shape a Request performs and which
// success message it produces.
type Operation int

const (
	OpCategories Operation = iota + 1
	OpSearch
	OpPreview
	OpArtifacts
)

func (o Operation) String() string {
	switch o {
	case OpCategories:
		return "categories"
	case OpSearch:
		return "search"
	case OpPreview:
		return "preview"
	case OpArtifacts:
		return "artifacts"
	}
	return "unknown"
}

// successKind maps an operation to the result kind it delivers on success
func (o Operation) successKind() Kind {
	switch o {
	case OpCategories:
		return KindCategoriesLoaded
	case OpSearch:
		return KindSearchResultsLoaded
	case OpPreview:
		return KindPreviewReady
	case OpArtifacts:
		return KindArtifactsReady
	}
	return KindNetworkError
}

// State is the lifecycle position of a Request.
//
//	Created -> Dispatched -> InFlight -> Delivered | Suppressed | Errored -> Finished
//
// Suppressed is also reachable straight from Dispatched when the request was
// cancelled before any I/O.
type State int32

const (
	StateCreated State = iota
	StateDispatched
	StateInFlight
	StateDelivered
	StateSuppressed
	StateErrored
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateDispatched:
		return "dispatched"
	case StateInFlight:
		return "in_flight"
	case StateDelivered:
		return "delivered"
	case StateSuppressed:
		return "suppressed"
	case StateErrored:
		return "errored"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// Extra is carried unchanged from a request to its result so the caller can
// correlate replies with whatever asked for them.
type Extra map[string]any

func (e Extra) clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// artifactRef is one sub-request of a bundle download
type artifactRef struct {
	format Format
	url    string
}

// Request is the per-operation record shared between the manager and the
// worker executing it. Everything except the cancelled/finished flags and the
// state is immutable once the request is registered.
type Request struct {
	ID         string // worker handle
	Op         Operation
	URL        string
	Extra      Extra
	Generation int64
	CreatedAt  time.Time

	target    ResultSink
	artifacts []artifactRef
	meta      ArtifactMeta

	cancelled atomic.Bool
	finished  atomic.Bool
	state     atomic.Int32
	outcome   atomic.Int32
}

func newRequest(op Operation, target ResultSink, generation int64) *Request {
	return &Request{
		ID:         uuid.New().String(),
		Op:         op,
		Generation: generation,
		CreatedAt:  time.Now(),
		target:     target,
	}
}

// Cancel flags the request. It returns false if the request was already
// cancelled or has finished. The flag is never cleared.
func (r *Request) Cancel() bool {
	if r.finished.Load() {
		return false
	}
	return r.cancelled.CompareAndSwap(false, true)
}

// Cancelled reports whether the request was flagged for cancellation
func (r *Request) Cancelled() bool {
	return r.cancelled.Load()
}

// Finished reports whether the worker is done with the request
func (r *Request) Finished() bool {
	return r.finished.Load()
}

// State returns the current lifecycle state
func (r *Request) State() State {
	return State(r.state.Load())
}

// Outcome returns how the request ended: Delivered, Suppressed or Errored.
// Before the request finishes it returns StateCreated.
func (r *Request) Outcome() State {
	return State(r.outcome.Load())
}

// advance moves the request forward to s. Moves backwards or out of Finished
// are ignored.
func (r *Request) advance(s State) bool {
	for {
		cur := r.state.Load()
		if State(cur) == StateFinished || State(cur) >= s {
			return false
		}
		if r.state.CompareAndSwap(cur, int32(s)) {
			return true
		}
	}
}

// finish records the terminal outcome and releases the request. Only the
// worker calls it, exactly once, as its last action on the request.
func (r *Request) finish(outcome State) {
	r.outcome.Store(int32(outcome))
	r.advance(outcome)
	r.advance(StateFinished)
	r.finished.Store(true)
}
