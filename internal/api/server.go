package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shehryarbajwa/iconbase-mini/internal/ratelimit"
)

// EventStream serves the websocket feed of catalog deliveries
type EventStream interface {
	HandleConnection(w http.ResponseWriter, r *http.Request)
}

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes(events EventStream, rateLimiter *ratelimit.Limiter) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/v1").Subrouter()

	// Event stream (not rate limited - long lived)
	api.HandleFunc("/events", events.HandleConnection).Methods("GET")

	// Catalog operations (rate limited)
	limited := api.PathPrefix("").Subrouter()
	limited.Use(RateLimitMiddleware(rateLimiter))

	limited.HandleFunc("/categories/fetch", h.FetchCategories).Methods("POST", "OPTIONS")
	limited.HandleFunc("/search", h.Search).Methods("POST", "OPTIONS")
	limited.HandleFunc("/previews", h.FetchPreview).Methods("POST", "OPTIONS")
	limited.HandleFunc("/downloads", h.DownloadArtifacts).Methods("POST", "OPTIONS")
	limited.HandleFunc("/cancel", h.CancelAll).Methods("POST", "OPTIONS")
	limited.HandleFunc("/status", h.Status).Methods("GET")

	r.Use(corsMiddleware)

	return r
}
