package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnote/quillnote/internal/api"
	"github.com/quillnote/quillnote/internal/api/models"
	"github.com/quillnote/quillnote/internal/backend"
	"github.com/quillnote/quillnote/internal/featureflags"
	"github.com/quillnote/quillnote/internal/fixtures"
	"github.com/quillnote/quillnote/internal/health"
	"github.com/quillnote/quillnote/internal/observability"
	"github.com/quillnote/quillnote/internal/rpc"
	"github.com/quillnote/quillnote/internal/session"
)

var testJWT = session.JWTConfig{
	Secret:   "test-secret-key-for-testing-only",
	Issuer:   "https://id.quillnote.test",
	Audience: "quillnote-api",
}

type testEnv struct {
	router   http.Handler
	upstream *httptest.Server
	calls    *atomic.Int32
	flags    *featureflags.Service
	registry *prometheus.Registry
}

// newTestEnv wires the router against a fake backend served by upstream.
func newTestEnv(t *testing.T, upstream http.HandlerFunc) *testEnv {
	t.Helper()

	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		upstream(w, r)
	}))
	t.Cleanup(server.Close)

	logger := zerolog.New(io.Discard)
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepository(),
		Logger:     logger,
		CacheTTL:   time.Nanosecond,
	})

	rpcRouter := rpc.NewRouter()
	rpc.RegisterDefaults(rpcRouter, nil)

	router := api.NewRouter(api.RouterConfig{
		Version:    "test",
		BuildTime:  "2024-01-01T00:00:00Z",
		Logger:     logger,
		AppMetrics: metrics,
		Gatherer:   registry,
		Sessions:   session.NewResolver(session.NewJWTVerifier(testJWT), session.DefaultCookieName),
		Backend: backend.NewClient(backend.ClientConfig{
			BaseURL: server.URL,
			Metrics: metrics,
			Logger:  logger,
		}),
		FeatureFlags: flags,
		Fixtures:     fixtures.Default(),
		Health: health.NewChecker(health.CheckerConfig{
			BaseURL: server.URL,
			Logger:  logger,
		}),
		RPC:     rpcRouter,
		BaseURL: server.URL,
	})

	return &testEnv{router: router, upstream: server, calls: calls, flags: flags, registry: registry}
}

func (e *testEnv) do(t *testing.T, method, target string, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, err := session.NewIssuer(testJWT, time.Hour).Issue(session.Session{
			UserID:      "usr_test",
			Email:       "writer@example.com",
			AccessToken: "backend-token",
		})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func okUpstream(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func TestRouter_Live(t *testing.T) {
	env := newTestEnv(t, okUpstream)

	w := env.do(t, http.MethodGet, "/api/ops/live", "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var live models.Liveness
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &live))
	assert.Equal(t, "OK", live.Status)
	assert.Equal(t, "test", live.Version)
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, okUpstream)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/entries"},
		{http.MethodPost, "/api/entries"},
		{http.MethodGet, "/api/entries/search?q=x"},
		{http.MethodGet, "/api/entries/export"},
		{http.MethodGet, "/api/entries/e1"},
		{http.MethodDelete, "/api/entries/e1"},
		{http.MethodGet, "/api/settings"},
		{http.MethodGet, "/api/settings/categories"},
		{http.MethodGet, "/api/prompts"},
		{http.MethodPost, "/api/prompts/generate"},
		{http.MethodGet, "/api/analytics/mood"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := env.do(t, rt.method, rt.path, "", false)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Unauthorized", decodeError(t, w).Error)
		})
	}
	assert.Zero(t, env.calls.Load())
}

func TestRouter_ListEntriesForwardsToken(t *testing.T) {
	var gotAuth, gotQuery string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		okUpstream(w, r)
	})

	w := env.do(t, http.MethodGet, "/api/entries?limit=5", "", true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, "Bearer backend-token", gotAuth)
	assert.Equal(t, "limit=5", gotQuery)
}

func TestRouter_CreateEntryValidation(t *testing.T) {
	env := newTestEnv(t, okUpstream)

	w := env.do(t, http.MethodPost, "/api/entries", `{"title":"","content":""}`, true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "title and content are required", resp.Error)
	assert.Len(t, resp.Errors, 2)
	assert.NotEmpty(t, resp.TraceID)
	assert.Zero(t, env.calls.Load())
}

func TestRouter_CreateEntryReturns201(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})

	w := env.do(t, http.MethodPost, "/api/entries", `{"title":"Day one","content":"Hello","mood":"calm"}`, true)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"title":"Day one","content":"Hello","mood":"calm"}`, w.Body.String())
}

func TestRouter_UpstreamErrorMirrored(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Entry not found"}`))
	})

	w := env.do(t, http.MethodGet, "/api/entries/missing", "", true)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Entry not found", decodeError(t, w).Error)
}

func TestRouter_TransactionsWithoutSessionServesFixtures(t *testing.T) {
	env := newTestEnv(t, okUpstream)

	w := env.do(t, http.MethodGet, "/api/gamification/transactions?limit=2", "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	var txns []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txns))
	require.Len(t, txns, 2)
	assert.Equal(t, "txn_mock_001", txns[0]["id"])
	assert.Equal(t, "txn_mock_002", txns[1]["id"])
	assert.Zero(t, env.calls.Load())
}

func TestRouter_StatsWithoutSessionServesBaseline(t *testing.T) {
	env := newTestEnv(t, okUpstream)

	w := env.do(t, http.MethodGet, "/api/gamification/stats", "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 0, stats["points_balance"])
	assert.EqualValues(t, 1, stats["level"])
	assert.Equal(t, "basic", stats["mode"])
	assert.Zero(t, env.calls.Load())
}

func TestRouter_GenerateDisabled(t *testing.T) {
	env := newTestEnv(t, okUpstream)
	require.NoError(t, env.flags.SetFlag(context.Background(), featureflags.FlagDisablePromptGeneration, true))

	w := env.do(t, http.MethodPost, "/api/prompts/generate", "", true)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Prompt generation is currently disabled", decodeError(t, w).Error)
	assert.Zero(t, env.calls.Load())
}

func TestRouter_RPC(t *testing.T) {
	env := newTestEnv(t, okUpstream)

	w := env.do(t, http.MethodPost, "/api/rpc/greeting.hello", `{"name":"Ada"}`, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":{"data":{"greeting":"Hello Ada"}}}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/rpc/nope", `{}`, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/rpc/greeting.hello", `{"name":""}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_HealthUnknownService(t *testing.T) {
	env := newTestEnv(t, okUpstream)

	w := env.do(t, http.MethodGet, "/api/health/billing", "", false)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Unknown service: billing", decodeError(t, w).Error)
}

func TestRouter_HealthAggregate(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/entries" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	w := env.do(t, http.MethodGet, "/api/health", "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	var report health.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, health.StatusHealthy, report.Status)
	require.Len(t, report.Services, 4)
	assert.Equal(t, health.MessageAuthRequired, report.Services[1].Message)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, okUpstream)
	env.do(t, http.MethodGet, "/api/prompts/daily", "", false)

	w := env.do(t, http.MethodGet, "/metrics", "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte(`quillnote_mock_fallbacks_total{endpoint="prompts.daily",reason="no_session"} 1`)))
}
