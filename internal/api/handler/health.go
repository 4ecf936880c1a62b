package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quillnote/quillnote/internal/api/response"
	"github.com/quillnote/quillnote/internal/health"
)

// HealthChecker probes backend services.
type HealthChecker interface {
	CheckAll(ctx context.Context) health.Report
	Check(ctx context.Context, name string) (health.ServiceCheck, error)
}

// HealthHandler reports backend health.
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Aggregate handles GET /api/health. It answers 503 only when the overall
// status is unhealthy.
func (h *HealthHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	report := h.checker.CheckAll(r.Context())
	response.JSON(w, r, report.Status.HTTPStatus(), report)
}

// Service handles GET /api/health/{service}.
func (h *HealthHandler) Service(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "service")
	check, err := h.checker.Check(r.Context(), name)
	if errors.Is(err, health.ErrUnknownService) {
		response.NotFound(w, r, "Unknown service: "+name)
		return
	}
	if err != nil {
		response.InternalError(w, r, "Health check failed")
		return
	}
	response.JSON(w, r, check.Status.HTTPStatus(), check)
}
