// Package handler provides HTTP handlers for the Quillnote API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/quillnote/quillnote/internal/api/models"
	"github.com/quillnote/quillnote/internal/api/response"
	"github.com/quillnote/quillnote/internal/featureflags"
	"github.com/quillnote/quillnote/internal/worker"
)

// Ops status values.
const (
	StatusOK       = "OK"
	StatusDegraded = "DEGRADED"
)

// UpstreamState exposes the circuit breaker guarding the backend.
type UpstreamState interface {
	CircuitBreakerState() gobreaker.State
	CircuitBreakerCounts() gobreaker.Counts
}

// FlagLister lists the current feature flags.
type FlagLister interface {
	GetAllFlags(ctx context.Context) map[string]*featureflags.Flag
}

// JobReporter lists scheduled maintenance jobs and their run stats.
type JobReporter interface {
	Jobs() []string
	Stats() map[string]worker.JobStats
}

// OpsHandlerConfig holds the dependencies of OpsHandler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string
	BaseURL   string
	Upstream  UpstreamState
	Flags     FlagLister
	Jobs      JobReporter
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	baseURL   string
	upstream  UpstreamState
	flags     FlagLister
	jobs      JobReporter
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		baseURL:   cfg.BaseURL,
		upstream:  cfg.Upstream,
		flags:     cfg.Flags,
		jobs:      cfg.Jobs,
	}
}

// Live handles GET /api/ops/live - liveness check.
func (h *OpsHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Liveness{
		Status:    StatusOK,
		Version:   h.version,
		BuildTime: h.buildTime,
		Time:      time.Now().UTC(),
	})
}

// SystemStatus handles GET /api/ops/status - local gateway state. The
// backend is not probed; an open circuit breaker reports DEGRADED.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:       StatusOK,
		Time:         time.Now().UTC(),
		Upstream:     models.UpstreamStatus{BaseURL: h.baseURL},
		FeatureFlags: map[string]bool{},
		Jobs:         []models.JobStatus{},
	}

	if h.upstream != nil {
		state := h.upstream.CircuitBreakerState()
		status.Upstream.CircuitBreaker = state.String()
		status.Upstream.ConsecutiveFailures = h.upstream.CircuitBreakerCounts().ConsecutiveFailures
		if state == gobreaker.StateOpen {
			status.Status = StatusDegraded
		}
	}

	if h.flags != nil {
		for key, flag := range h.flags.GetAllFlags(r.Context()) {
			status.FeatureFlags[key] = flag.IsEnabled()
		}
	}

	if h.jobs != nil {
		stats := h.jobs.Stats()
		for _, name := range h.jobs.Jobs() {
			st := stats[name]
			job := models.JobStatus{
				Name:           name,
				Runs:           st.Runs,
				Failures:       st.Failures,
				LastDurationMS: st.LastDuration.Milliseconds(),
				LastError:      st.LastError,
			}
			if !st.LastRunAt.IsZero() {
				at := st.LastRunAt.UTC()
				job.LastRunAt = &at
			}
			status.Jobs = append(status.Jobs, job)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}
