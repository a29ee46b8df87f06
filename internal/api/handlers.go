package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shehryarbajwa/iconbase-mini/internal/catalog"
	"github.com/shehryarbajwa/iconbase-mini/internal/logger"
	"github.com/shehryarbajwa/iconbase-mini/pkg/models"
)

const (
	defaultPage  = 1
	defaultLimit = 30
	maxLimit     = 200
)

// Catalog is the manager surface the handlers drive
type Catalog interface {
	FetchCategories() error
	Search(query, tags string, page, limit int) error
	FetchPreview(id int, relativePath string, generation int64, size int) error
	DownloadArtifacts(req catalog.ArtifactRequest) error
	CancelAll() (int64, error)
	Generation() int64
	Stats() catalog.Stats
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog Catalog
	log     logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(c Catalog, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		catalog: c,
		log:     log,
	}
}

// FetchCategories handles POST /v1/categories/fetch
func (h *Handler) FetchCategories(w http.ResponseWriter, r *http.Request) {
	h.accepted(w, h.catalog.FetchCategories())
}

// Search handles POST /v1/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Page == 0 {
		req.Page = defaultPage
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}
	if req.Page < 1 || req.Limit < 1 || req.Limit > maxLimit {
		writeError(w, http.StatusBadRequest, "page must be >= 1 and limit between 1 and 200")
		return
	}

	h.accepted(w, h.catalog.Search(req.Query, req.Tags, req.Page, req.Limit))
}

// FetchPreview handles POST /v1/previews
func (h *Handler) FetchPreview(w http.ResponseWriter, r *http.Request) {
	var req models.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	h.accepted(w, h.catalog.FetchPreview(req.ID, req.Path, req.Generation, req.Size))
}

// DownloadArtifacts handles POST /v1/downloads
func (h *Handler) DownloadArtifacts(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.HVIFPath == "" && req.SVGPath == "" && req.IOMPath == "" {
		writeError(w, http.StatusBadRequest, "at least one of hvifPath, svgPath, iomPath is required")
		return
	}

	h.accepted(w, h.catalog.DownloadArtifacts(catalog.ArtifactRequest{
		ArtifactMeta: catalog.ArtifactMeta{
			ID:       req.ID,
			Title:    req.Title,
			Author:   req.Author,
			License:  req.License,
			MimeType: req.MimeType,
			Tags:     req.Tags,
		},
		HVIFPath: req.HVIFPath,
		SVGPath:  req.SVGPath,
		IOMPath:  req.IOMPath,
	}))
}

// CancelAll handles POST /v1/cancel
func (h *Handler) CancelAll(w http.ResponseWriter, r *http.Request) {
	gen, err := h.catalog.CancelAll()
	if err != nil {
		h.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CancelResponse{Generation: gen})
}

// Status handles GET /v1/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Stats())
}

func (h *Handler) accepted(w http.ResponseWriter, err error) {
	if err != nil {
		h.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, models.AcceptedResponse{
		Status:     "accepted",
		Generation: h.catalog.Generation(),
	})
}

func (h *Handler) unavailable(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrManagerClosed) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	h.log.Error("api", "Failed to queue catalog operation", map[string]interface{}{"error": err})
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
