package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shehryarbajwa/iconbase-mini/internal/ratelimit"
)

// maxBodyBytes caps how much of a response body is read into memory
const maxBodyBytes = 64 << 20

// Response is what a Transport returns for a completed exchange
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the status is 2xx
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Transport performs a blocking GET. A non-nil error means no usable
// response was received; non-2xx statuses are returned as a Response.
type Transport interface {
	Get(ctx context.Context, rawURL string) (*Response, error)
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, rawURL string) (*Response, error)

func (f TransportFunc) Get(ctx context.Context, rawURL string) (*Response, error) {
	return f(ctx, rawURL)
}

// HTTPTransport is the net/http Transport, throttled per catalog host
type HTTPTransport struct {
	client    *http.Client
	limiter   *ratelimit.Limiter
	userAgent string
	maxBody   int64
}

// NewHTTPTransport creates a transport. limiter may be nil for no throttling.
func NewHTTPTransport(client *http.Client, limiter *ratelimit.Limiter, userAgent string) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPTransport{
		client:    client,
		limiter:   limiter,
		userAgent: userAgent,
		maxBody:   maxBodyBytes,
	}
}

func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx, u.Host); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > t.maxBody {
		return nil, fmt.Errorf("response body exceeds %d bytes", t.maxBody)
	}

	return &Response{Status: resp.StatusCode, Body: body}, nil
}
