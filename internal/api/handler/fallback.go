package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/api/middleware"
	"github.com/quillnote/quillnote/internal/fixtures"
	"github.com/quillnote/quillnote/internal/observability"
)

// Fallback reasons, as recorded on the mock fallback counter.
const (
	ReasonNoSession    = "no_session"
	ReasonMockEnabled  = "mock_enabled"
	ReasonBackendError = "backend_error"
)

// mockFallback decides when a mock-eligible endpoint serves fixtures.
type mockFallback struct {
	fixtures fixtures.Fixtures
	flags    Flags
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// reason returns why fixtures must be served before calling the backend,
// or "" when the backend should be tried.
func (f mockFallback) reason(ctx context.Context) string {
	if middleware.GetSession(ctx) == nil {
		return ReasonNoSession
	}
	if f.flags != nil && f.flags.UseMockData(ctx) {
		return ReasonMockEnabled
	}
	return ""
}

// record logs and counts a fallback.
func (f mockFallback) record(r *http.Request, endpoint, reason string, err error) {
	f.metrics.RecordFallback(endpoint, reason)
	f.logger.Warn().
		Err(err).
		Str("request_id", requestID(r)).
		Str("endpoint", endpoint).
		Str("reason", reason).
		Msg("serving mock data")
}
