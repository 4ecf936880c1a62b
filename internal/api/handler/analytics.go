package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/backend"
)

// AnalyticsHandler proxies analytics endpoints.
type AnalyticsHandler struct {
	proxy
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(b Backend, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{proxy{backend: b, logger: logger}}
}

// Get handles GET /api/analytics.
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodGet,
		Path:   "/analytics",
		Query:  r.URL.Query(),
	}, 0, "Failed to fetch analytics")
}

// Track handles POST /api/analytics.
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	body, ok := readObject(w, r)
	if !ok {
		return
	}
	h.forward(w, r, backend.Request{
		Method: http.MethodPost,
		Path:   "/analytics",
		Body:   body,
	}, 0, "Failed to record analytics")
}

// Mood handles GET /api/analytics/mood.
func (h *AnalyticsHandler) Mood(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodGet,
		Path:   "/analytics/mood",
		Query:  r.URL.Query(),
	}, 0, "Failed to fetch mood analytics")
}
