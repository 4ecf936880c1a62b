package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/api/models"
	"github.com/quillnote/quillnote/internal/api/response"
	"github.com/quillnote/quillnote/internal/backend"
)

// DefaultBackendTestTimeout bounds GET /api/test-backend.
const DefaultBackendTestTimeout = 10 * time.Second

// DiagnosticsHandlerConfig holds the dependencies of DiagnosticsHandler.
type DiagnosticsHandlerConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient backend.Doer
	Logger     zerolog.Logger
}

// DiagnosticsHandler checks raw connectivity to the backend, bypassing the
// circuit breaker.
type DiagnosticsHandler struct {
	baseURL    string
	timeout    time.Duration
	httpClient backend.Doer
	logger     zerolog.Logger
}

// NewDiagnosticsHandler creates a new DiagnosticsHandler.
func NewDiagnosticsHandler(cfg DiagnosticsHandlerConfig) *DiagnosticsHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBackendTestTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &DiagnosticsHandler{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

// TestBackend handles GET /api/test-backend.
func (h *DiagnosticsHandler) TestBackend(w http.ResponseWriter, r *http.Request) {
	result := h.probe(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusServiceUnavailable
		h.logger.Warn().
			Str("request_id", requestID(r)).
			Int("status_code", result.StatusCode).
			Str("error", result.Error).
			Msg("backend connectivity test failed")
	}
	response.JSON(w, r, status, result)
}

func (h *DiagnosticsHandler) probe(ctx context.Context) models.BackendTestResult {
	result := models.BackendTestResult{BaseURL: h.baseURL}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := h.httpClient.Do(req)
	result.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300

	var decoded any
	if json.Unmarshal(body, &decoded) == nil {
		result.Body = decoded
	} else if len(body) > 0 {
		result.Body = string(body)
	}
	if !result.Success {
		result.Error = http.StatusText(resp.StatusCode)
	}
	return result
}
