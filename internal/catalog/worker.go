package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/shehryarbajwa/iconbase-mini/internal/logger"
)

const logModule = "catalog"

// worker runs a single Request from first checkpoint to finish
type worker struct {
	transport Transport
	decoders  Decoders
	log       logger.Logger
	timeout   time.Duration
}

func (w *worker) run(req *Request) {
	if req.Op == OpArtifacts {
		w.bundle(req)
		return
	}
	w.fetch(req)
}

// fetch performs one GET, decodes by operation and delivers exactly one
// result unless the request is cancelled at either checkpoint.
func (w *worker) fetch(req *Request) {
	outcome := StateSuppressed
	defer func() { req.finish(outcome) }()

	if req.Cancelled() {
		w.suppressed(req, "before request")
		return
	}

	req.advance(StateInFlight)
	resp, err := w.get(req.URL)

	if req.Cancelled() {
		w.suppressed(req, "after request")
		return
	}

	if err != nil {
		outcome = w.fail(req, &NetworkError{
			Message: fmt.Sprintf("request failed: %v", err),
			URL:     req.URL,
		})
		return
	}
	if !resp.OK() {
		outcome = w.fail(req, &NetworkError{
			Message: fmt.Sprintf("unexpected status %d", resp.Status),
			URL:     req.URL,
			Status:  resp.Status,
		})
		return
	}

	result := w.newResult(req, req.Op.successKind())
	switch req.Op {
	case OpPreview:
		img, err := w.decoders.Image(resp.Body)
		if err != nil {
			outcome = w.fail(req, &NetworkError{
				Message: fmt.Sprintf("failed to decode preview image: %v", err),
				URL:     req.URL,
				Status:  resp.Status,
			})
			return
		}
		result.Preview = &Preview{
			ID:         intExtra(req.Extra, "id"),
			Generation: int64Extra(req.Extra, "generation"),
			Size:       intExtra(req.Extra, "size"),
			Image:      img,
		}
	default:
		data, err := w.decoders.JSON(resp.Body)
		if err != nil {
			outcome = w.fail(req, &NetworkError{
				Message: fmt.Sprintf("failed to decode %s response: %v", req.Op, err),
				URL:     req.URL,
				Status:  resp.Status,
			})
			return
		}
		result.Data = data
	}

	req.target.Deliver(result)
	outcome = StateDelivered
}

// bundle fetches each artifact in order. A failed artifact is skipped; the
// delivery is an error only if nothing at all was retrieved.
func (w *worker) bundle(req *Request) {
	outcome := StateSuppressed
	defer func() { req.finish(outcome) }()

	if req.Cancelled() {
		w.suppressed(req, "before request")
		return
	}

	req.advance(StateInFlight)
	bundle := &ArtifactBundle{ArtifactMeta: req.meta}
	retrieved := 0
	var lastErr *NetworkError

	for _, a := range req.artifacts {
		if req.Cancelled() {
			break
		}

		resp, err := w.get(a.url)
		switch {
		case err != nil:
			lastErr = &NetworkError{Message: fmt.Sprintf("request failed: %v", err), URL: a.url}
		case !resp.OK():
			lastErr = &NetworkError{Message: fmt.Sprintf("unexpected status %d", resp.Status), URL: a.url, Status: resp.Status}
		default:
			bundle.set(a.format, resp.Body)
			retrieved++
			continue
		}
		w.log.Warn(logModule, "Artifact download failed", map[string]interface{}{
			"request_id": req.ID,
			"format":     string(a.format),
			"error":      lastErr.Error(),
		})
	}

	if req.Cancelled() {
		w.suppressed(req, "after request")
		return
	}

	if retrieved == 0 {
		nerr := &NetworkError{Message: "failed to download any artifact"}
		if lastErr != nil {
			nerr.Message = "failed to download any artifact: " + lastErr.Message
			nerr.URL = lastErr.URL
			nerr.Status = lastErr.Status
		}
		outcome = w.fail(req, nerr)
		return
	}

	result := w.newResult(req, KindArtifactsReady)
	result.Artifacts = bundle
	req.target.Deliver(result)
	outcome = StateDelivered
}

func (w *worker) get(rawURL string) (*Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	return w.transport.Get(ctx, rawURL)
}

func (w *worker) newResult(req *Request, kind Kind) Result {
	return Result{
		Kind:       kind,
		RequestID:  req.ID,
		Generation: req.Generation,
		Extra:      req.Extra,
	}
}

func (w *worker) fail(req *Request, nerr *NetworkError) State {
	w.log.Warn(logModule, "Catalog request failed", map[string]interface{}{
		"request_id": req.ID,
		"operation":  req.Op.String(),
		"url":        nerr.URL,
		"status":     nerr.Status,
		"error":      nerr.Message,
	})
	result := w.newResult(req, KindNetworkError)
	result.Err = nerr
	req.target.Deliver(result)
	return StateErrored
}

func (w *worker) suppressed(req *Request, where string) {
	w.log.Debug(logModule, "Cancelled request suppressed", map[string]interface{}{
		"request_id": req.ID,
		"operation":  req.Op.String(),
		"checkpoint": where,
	})
}

func intExtra(e Extra, key string) int {
	v, _ := e[key].(int)
	return v
}

func int64Extra(e Extra, key string) int64 {
	v, _ := e[key].(int64)
	return v
}
