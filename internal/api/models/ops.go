package models

import "time"

// Liveness is the body of GET /api/ops/live.
type Liveness struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	BuildTime string    `json:"build_time,omitempty"`
	Time      time.Time `json:"time"`
}

// SystemStatus is the body of GET /api/ops/status: local state of the
// gateway, without probing the backend.
type SystemStatus struct {
	Status       string          `json:"status"`
	Time         time.Time       `json:"time"`
	Upstream     UpstreamStatus  `json:"upstream"`
	FeatureFlags map[string]bool `json:"feature_flags"`
	Jobs         []JobStatus     `json:"jobs"`
}

// JobStatus reports the runs of one maintenance job.
type JobStatus struct {
	Name           string     `json:"name"`
	Runs           int64      `json:"runs"`
	Failures       int64      `json:"failures"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	LastDurationMS int64      `json:"last_duration_ms"`
	LastError      string     `json:"last_error,omitempty"`
}

// UpstreamStatus reports the circuit breaker protecting the backend.
type UpstreamStatus struct {
	BaseURL             string `json:"base_url"`
	CircuitBreaker      string `json:"circuit_breaker"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
}

// BackendTestResult is the body of GET /api/test-backend.
type BackendTestResult struct {
	Success    bool   `json:"success"`
	BaseURL    string `json:"base_url"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	Body       any    `json:"body,omitempty"`
	Error      string `json:"error,omitempty"`
}
