package catalog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingSink collects deliveries and signals each one on a channel
type recordingSink struct {
	mu      sync.Mutex
	results []Result
	ch      chan Result
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan Result, 64)}
}

func (s *recordingSink) Deliver(r Result) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
	s.ch <- r
}

func (s *recordingSink) all() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

func (s *recordingSink) next(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-s.ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	return Result{}
}

// stubTransport answers from a URL table; unknown URLs get a 404
type stubTransport struct {
	mu        sync.Mutex
	responses map[string]*Response
	errs      map[string]error
	calls     []string
}

func newStubTransport() *stubTransport {
	return &stubTransport{
		responses: make(map[string]*Response),
		errs:      make(map[string]error),
	}
}

func (s *stubTransport) on(url string, status int, body []byte) *stubTransport {
	s.responses[url] = &Response{Status: status, Body: body}
	return s
}

func (s *stubTransport) fail(url string, err error) *stubTransport {
	s.errs[url] = err
	return s
}

func (s *stubTransport) Get(_ context.Context, url string) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, url)
	if err, ok := s.errs[url]; ok {
		return nil, err
	}
	if resp, ok := s.responses[url]; ok {
		return resp, nil
	}
	return &Response{Status: 404}, nil
}

func (s *stubTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// gatedTransport blocks every call until release is closed
type gatedTransport struct {
	entered  chan string
	release  chan struct{}
	mu       sync.Mutex
	started  int
	returned int
	body     []byte
}

func newGatedTransport(body []byte) *gatedTransport {
	return &gatedTransport{
		entered: make(chan string, 64),
		release: make(chan struct{}),
		body:    body,
	}
}

func (g *gatedTransport) Get(ctx context.Context, url string) (*Response, error) {
	g.mu.Lock()
	g.started++
	g.mu.Unlock()
	g.entered <- url

	defer func() {
		g.mu.Lock()
		g.returned++
		g.mu.Unlock()
	}()

	select {
	case <-g.release:
		return &Response{Status: 200, Body: g.body}, nil
	case <-ctx.Done():
		return nil, errors.New("gate timeout")
	}
}

func (g *gatedTransport) waitEntered(t *testing.T) string {
	t.Helper()
	select {
	case u := <-g.entered:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("transport was never called")
	}
	return ""
}

func (g *gatedTransport) counts() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started, g.returned
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const testBase = "http://catalog.test"

func newTestManager(t *testing.T, tr Transport, sink ResultSink, maxWorkers int64) *Manager {
	t.Helper()
	m, err := NewManager(Options{
		BaseURL:        testBase,
		Transport:      tr,
		Sink:           sink,
		MaxWorkers:     maxWorkers,
		RequestTimeout: 5 * time.Second,
		ShutdownPoll:   time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}
