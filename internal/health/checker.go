// Package health probes the external backend's services and aggregates
// their status.
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/observability"
)

// Status is the result of a probe.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// MessageAuthRequired accompanies a 401 probe, which still counts as healthy.
const MessageAuthRequired = "reachable (authentication required)"

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 5 * time.Second

// ErrUnknownService is returned by Check for a name outside Services.
var ErrUnknownService = errors.New("unknown service")

// Service is a backend service and the path probed to reach it.
type Service struct {
	Name string
	Path string
}

// Services is the fixed, ordered list of probed services.
var Services = []Service{
	{Name: "api", Path: "/health"},
	{Name: "entries", Path: "/entries"},
	{Name: "prompts", Path: "/prompts"},
	{Name: "analytics", Path: "/analytics"},
}

// ServiceCheck is the result of probing one service.
type ServiceCheck struct {
	Service   string    `json:"service"`
	Status    Status    `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Report aggregates the checks of every service.
type Report struct {
	Status    Status         `json:"status"`
	Services  []ServiceCheck `json:"services"`
	LatencyMS int64          `json:"latency_ms"`
	CheckedAt time.Time      `json:"checked_at"`
}

// Doer sends probe requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CheckerConfig holds configuration for the Checker.
type CheckerConfig struct {
	BaseURL      string
	ProbeTimeout time.Duration
	HTTPClient   Doer
	Metrics      *observability.Metrics
	Logger       zerolog.Logger
}

// Checker probes the backend services one after another.
type Checker struct {
	baseURL    string
	timeout    time.Duration
	httpClient Doer
	metrics    *observability.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewChecker creates a new Checker.
func NewChecker(cfg CheckerConfig) *Checker {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Checker{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// CheckAll probes every service in order. A failing probe never stops the
// batch; the report always has one check per service.
func (c *Checker) CheckAll(ctx context.Context) Report {
	start := c.now()
	checks := make([]ServiceCheck, 0, len(Services))
	for _, svc := range Services {
		checks = append(checks, c.probe(ctx, svc))
	}

	statuses := make([]Status, len(checks))
	for i, check := range checks {
		statuses[i] = check.Status
	}

	return Report{
		Status:    Worst(statuses...),
		Services:  checks,
		LatencyMS: c.now().Sub(start).Milliseconds(),
		CheckedAt: start.UTC(),
	}
}

// Check probes a single service by name.
func (c *Checker) Check(ctx context.Context, name string) (ServiceCheck, error) {
	for _, svc := range Services {
		if svc.Name == name {
			return c.probe(ctx, svc), nil
		}
	}
	return ServiceCheck{}, fmt.Errorf("%w: %s", ErrUnknownService, name)
}

func (c *Checker) probe(ctx context.Context, svc Service) ServiceCheck {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.now()
	check := ServiceCheck{Service: svc.Name, CheckedAt: start.UTC()}

	status, err := c.do(ctx, c.baseURL+svc.Path)
	latency := c.now().Sub(start)
	check.LatencyMS = latency.Milliseconds()
	check.Status, check.Message = Classify(status, err)

	if check.Status != StatusHealthy {
		c.logger.Warn().
			Str("service", svc.Name).
			Str("status", string(check.Status)).
			Str("message", check.Message).
			Dur("latency", latency).
			Msg("backend service probe not healthy")
	}
	c.metrics.SetServiceHealth(svc.Name, check.Status.Score(), latency)

	return check
}

func (c *Checker) do(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}

// Classify maps a probe outcome to a status and message.
func Classify(statusCode int, err error) (Status, string) {
	switch {
	case err != nil:
		if errors.Is(err, context.DeadlineExceeded) {
			return StatusUnhealthy, "timeout"
		}
		return StatusUnhealthy, err.Error()
	case statusCode == http.StatusUnauthorized:
		return StatusHealthy, MessageAuthRequired
	case statusCode >= 200 && statusCode < 300:
		return StatusHealthy, ""
	default:
		return StatusDegraded, fmt.Sprintf("HTTP %d", statusCode)
	}
}

// Worst returns the most severe status. No statuses is healthy.
func Worst(statuses ...Status) Status {
	worst := StatusHealthy
	for _, s := range statuses {
		if s.severity() > worst.severity() {
			worst = s
		}
	}
	return worst
}

func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Score is the gauge value exported for s.
func (s Status) Score() float64 {
	switch s {
	case StatusHealthy:
		return 1
	case StatusDegraded:
		return 0.5
	default:
		return 0
	}
}

// HTTPStatus is the response code for a report or check with status s.
func (s Status) HTTPStatus() int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
