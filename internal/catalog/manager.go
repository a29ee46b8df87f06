package catalog

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/shehryarbajwa/iconbase-mini/internal/logger"
)

var (
	// ErrManagerClosed is returned for operations submitted after Close
	ErrManagerClosed = errors.New("catalog manager is closed")
	// ErrDispatchLimit is the cause of a dispatch failure delivery
	ErrDispatchLimit = errors.New("worker limit reached")
)

const (
	defaultMaxWorkers     = 256
	defaultQueueSize      = 128
	defaultRequestTimeout = 30 * time.Second
	defaultShutdownPoll   = 10 * time.Millisecond
)

// Options configures a Manager. BaseURL, Transport and Sink are required.
type Options struct {
	BaseURL   string
	Transport Transport
	Sink      ResultSink
	Logger    logger.Logger
	Decoders  Decoders

	MaxWorkers     int64         // live workers before dispatch fails
	QueueSize      int           // mailbox depth
	RequestTimeout time.Duration // per transport call
	ShutdownPoll   time.Duration // Close wait interval
}

// Stats is a point-in-time view of the manager's bookkeeping
type Stats struct {
	Registered int   `json:"registered"`
	Unfinished int   `json:"unfinished"`
	Generation int64 `json:"generation"`
	MaxWorkers int64 `json:"maxWorkers"`
}

// Manager is the single entry point for catalog operations. Every operation
// is queued to one loop goroutine which creates and registers the request
// and starts its worker; network I/O never happens on that goroutine.
type Manager struct {
	baseURL    string
	sink       ResultSink
	log        logger.Logger
	worker     *worker
	registry   *Registry
	slots      *semaphore.Weighted
	maxWorkers int64
	poll       time.Duration

	generation atomic.Int64

	mu       sync.RWMutex // guards closed and sends on mailbox
	closed   bool
	mailbox  chan func()
	loopDone chan struct{}
}

// NewManager validates opts and starts the manager loop
func NewManager(opts Options) (*Manager, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("result sink is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = defaultMaxWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.ShutdownPoll <= 0 {
		opts.ShutdownPoll = defaultShutdownPoll
	}

	m := &Manager{
		baseURL: opts.BaseURL,
		sink:    opts.Sink,
		log:     opts.Logger,
		worker: &worker{
			transport: opts.Transport,
			decoders:  opts.Decoders.withDefaults(),
			log:       opts.Logger,
			timeout:   opts.RequestTimeout,
		},
		registry:   NewRegistry(),
		slots:      semaphore.NewWeighted(opts.MaxWorkers),
		maxWorkers: opts.MaxWorkers,
		poll:       opts.ShutdownPoll,
		mailbox:    make(chan func(), opts.QueueSize),
		loopDone:   make(chan struct{}),
	}

	go m.loop()

	return m, nil
}

func (m *Manager) loop() {
	defer close(m.loopDone)
	for op := range m.mailbox {
		op()
	}
}

// enqueue hands op to the loop. It blocks only while the mailbox is full.
func (m *Manager) enqueue(op func()) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrManagerClosed
	}
	m.mailbox <- op
	return nil
}

// FetchCategories requests the meta category list
func (m *Manager) FetchCategories() error {
	gen := m.generation.Load()
	return m.enqueue(func() {
		req := m.newRequest(OpCategories, gen, nil)
		req.URL = CategoriesURL(m.baseURL)
		m.dispatch(req)
	})
}

// Search requests one page of results. Empty query and tags are omitted.
func (m *Manager) Search(query, tags string, page, limit int) error {
	gen := m.generation.Load()
	return m.enqueue(func() {
		req := m.newRequest(OpSearch, gen, Extra{"query": query, "tags": tags, "page": page, "limit": limit})
		req.URL = SearchURL(m.baseURL, query, tags, page, limit)
		m.dispatch(req)
	})
}

// FetchPreview requests the preview image at relativePath. id, generation
// and size come back unchanged in the delivery so the caller can match it to
// the row that asked and drop it if stale.
func (m *Manager) FetchPreview(id int, relativePath string, generation int64, size int) error {
	gen := m.generation.Load()
	return m.enqueue(func() {
		req := m.newRequest(OpPreview, gen, Extra{"id": id, "generation": generation, "size": size})
		req.URL = UploadURL(m.baseURL, relativePath)
		m.dispatch(req)
	})
}

// ArtifactRequest describes a bundle download. Empty paths are skipped.
type ArtifactRequest struct {
	ArtifactMeta
	HVIFPath string
	SVGPath  string
	IOMPath  string
}

// DownloadArtifacts fetches up to three artifact files in one operation and
// delivers whichever were retrieved together.
func (m *Manager) DownloadArtifacts(ar ArtifactRequest) error {
	gen := m.generation.Load()
	return m.enqueue(func() {
		req := m.newRequest(OpArtifacts, gen, Extra{"id": ar.ID})
		req.meta = ar.ArtifactMeta
		for _, p := range []struct {
			format Format
			path   string
		}{
			{FormatHVIF, ar.HVIFPath},
			{FormatSVG, ar.SVGPath},
			{FormatIOM, ar.IOMPath},
		} {
			if p.path == "" {
				continue
			}
			req.artifacts = append(req.artifacts, artifactRef{format: p.format, url: UploadURL(m.baseURL, p.path)})
		}
		if len(req.artifacts) > 0 {
			req.URL = req.artifacts[0].url
		}
		m.dispatch(req)
	})
}

// CancelAll bumps the generation and flags every request submitted before
// the call. In-flight transport calls are not interrupted; workers notice
// the flag at their next checkpoint. It returns the new generation.
func (m *Manager) CancelAll() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return m.generation.Load(), ErrManagerClosed
	}

	gen := m.generation.Add(1)
	m.mailbox <- func() {
		n := m.registry.CancelAll()
		m.log.Info(logModule, "Cancelled in-flight requests", map[string]interface{}{
			"flagged":    n,
			"generation": gen,
		})
	}
	return gen, nil
}

// Generation returns the current generation counter
func (m *Manager) Generation() int64 {
	return m.generation.Load()
}

// Stats reports registry and generation counters
func (m *Manager) Stats() Stats {
	return Stats{
		Registered: m.registry.Len(),
		Unfinished: m.registry.Unfinished(),
		Generation: m.generation.Load(),
		MaxWorkers: m.maxWorkers,
	}
}

// Close stops accepting operations, dispatches whatever is still queued,
// cancels every request and waits until all workers have finished. It is
// safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.loopDone
		return nil
	}
	m.closed = true
	close(m.mailbox)
	m.mu.Unlock()

	<-m.loopDone

	started := time.Now()
	pending := m.registry.Unfinished()
	if pending > 0 {
		m.log.Info(logModule, "Waiting for catalog workers", map[string]interface{}{"pending": pending})
	}
	drained := m.registry.Shutdown(m.poll)
	m.log.Info(logModule, "Catalog manager stopped", map[string]interface{}{
		"drained":  drained,
		"duration": time.Since(started).String(),
	})
	return nil
}

// newRequest runs on the loop goroutine. gen is the generation read when the
// operation was submitted, not when the loop got to it.
func (m *Manager) newRequest(op Operation, gen int64, extra Extra) *Request {
	req := newRequest(op, m.sink, gen)
	req.Extra = extra.clone()
	return req
}

// dispatch runs on the loop goroutine: prune, take a worker slot, register,
// then start the worker. A request that cannot get a slot is reported and
// discarded without ever being registered. Nothing on the loop calls the sink.
func (m *Manager) dispatch(req *Request) {
	if n := m.registry.Prune(); n > 0 {
		m.log.Debug(logModule, "Pruned finished requests", map[string]interface{}{"pruned": n})
	}

	if !m.slots.TryAcquire(1) {
		m.log.Error(logModule, "Failed to start catalog worker", map[string]interface{}{
			"request_id": req.ID,
			"operation":  req.Op.String(),
			"error":      ErrDispatchLimit,
		})
		// delivered off the loop so a sink that submits from Deliver cannot
		// block on the mailbox it is draining
		failure := Result{
			Kind:       KindNetworkError,
			RequestID:  req.ID,
			Generation: req.Generation,
			Extra:      req.Extra,
			Err:        &NetworkError{Message: "failed to start worker: " + ErrDispatchLimit.Error()},
		}
		go req.target.Deliver(failure)
		return
	}

	m.registry.Register(req)
	req.advance(StateDispatched)

	m.log.Debug(logModule, "Dispatched catalog request", map[string]interface{}{
		"request_id": req.ID,
		"operation":  req.Op.String(),
		"url":        req.URL,
		"generation": req.Generation,
	})

	go func() {
		defer m.slots.Release(1)
		m.worker.run(req)
	}()
}
