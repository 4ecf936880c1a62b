// Package api provides the HTTP API for Quillnote.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/api/handler"
	"github.com/quillnote/quillnote/internal/api/middleware"
	"github.com/quillnote/quillnote/internal/backend"
	"github.com/quillnote/quillnote/internal/featureflags"
	"github.com/quillnote/quillnote/internal/fixtures"
	"github.com/quillnote/quillnote/internal/observability"
	"github.com/quillnote/quillnote/internal/rpc"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	RequireTLS  bool

	// Metrics is the otel HTTP middleware. Optional.
	Metrics *middleware.Metrics
	// AppMetrics records upstream, fallback and health series. Optional.
	AppMetrics *observability.Metrics
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer

	Sessions middleware.SessionResolver
	Backend  handler.Backend
	// Upstream reports the circuit breaker state on /api/ops/status. Optional.
	Upstream     handler.UpstreamState
	FeatureFlags *featureflags.Service
	Fixtures     fixtures.Fixtures
	Health       handler.HealthChecker
	RPC          *rpc.Router
	// Jobs reports maintenance job runs on /api/ops/status. Optional.
	Jobs handler.JobReporter

	// BaseURL and the diagnostics fields configure GET /api/test-backend.
	BaseURL            string
	BackendTestTimeout time.Duration
	DiagnosticsClient  backend.Doer
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "quillnote-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	var flags handler.Flags
	var flagLister handler.FlagLister
	if cfg.FeatureFlags != nil {
		flags = cfg.FeatureFlags
		flagLister = cfg.FeatureFlags
	}

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		BaseURL:   cfg.BaseURL,
		Upstream:  cfg.Upstream,
		Flags:     flagLister,
		Jobs:      cfg.Jobs,
	})
	entriesHandler := handler.NewEntriesHandler(cfg.Backend, cfg.Logger)
	settingsHandler := handler.NewSettingsHandler(cfg.Backend, cfg.Logger)
	analyticsHandler := handler.NewAnalyticsHandler(cfg.Backend, cfg.Logger)
	promptsHandler := handler.NewPromptsHandler(handler.PromptsHandlerConfig{
		Backend:  cfg.Backend,
		Flags:    flags,
		Fixtures: cfg.Fixtures,
		Metrics:  cfg.AppMetrics,
		Logger:   cfg.Logger,
	})
	gamificationHandler := handler.NewGamificationHandler(handler.GamificationHandlerConfig{
		Backend:  cfg.Backend,
		Flags:    flags,
		Fixtures: cfg.Fixtures,
		Metrics:  cfg.AppMetrics,
		Logger:   cfg.Logger,
	})
	healthHandler := handler.NewHealthHandler(cfg.Health)
	diagnosticsHandler := handler.NewDiagnosticsHandler(handler.DiagnosticsHandlerConfig{
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.BackendTestTimeout,
		HTTPClient: cfg.DiagnosticsClient,
		Logger:     cfg.Logger,
	})
	rpcRouter := cfg.RPC
	if rpcRouter == nil {
		rpcRouter = rpc.NewRouter()
	}
	rpcHandler := handler.NewRPCHandler(rpcRouter, cfg.Logger)

	publicRateLimit := middleware.RateLimitByIP(middleware.PublicRateLimit)          // 30 req/min per IP
	standardRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit)    // 120 req/min per user
	expensiveRateLimit := middleware.RateLimitByUser(middleware.ExpensiveRateLimit) // 10 req/min per user

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		// Attach the session when present; individual groups decide whether it is required.
		if cfg.Sessions != nil {
			r.Use(middleware.Session(cfg.Sessions, cfg.Logger))
		}

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/live", opsHandler.Live)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Health and diagnostics (public) - per-IP rate limiting
		r.Group(func(r chi.Router) {
			r.Use(publicRateLimit)
			r.Get("/health", healthHandler.Aggregate)
			r.Get("/health/{service}", healthHandler.Service)
			r.Get("/test-backend", diagnosticsHandler.TestBackend)
		})

		// Typed procedures (public)
		r.Route("/rpc", func(r chi.Router) {
			r.Use(publicRateLimit)
			r.Get("/", rpcHandler.List)
			r.With(middleware.RequireJSON).Post("/{procedure}", rpcHandler.Call)
		})

		// Mock-eligible endpoints: served without a session
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/prompts/daily", promptsHandler.Daily)
			r.Get("/gamification/stats", gamificationHandler.Stats)
			r.Get("/gamification/transactions", gamificationHandler.Transactions)
		})

		// Authenticated proxy endpoints - user-based rate limiting
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Use(standardRateLimit)

			// Entries
			r.Get("/entries", entriesHandler.List)
			r.With(middleware.RequireJSON).Post("/entries", entriesHandler.Create)
			r.Get("/entries/search", entriesHandler.Search)
			r.With(expensiveRateLimit).Get("/entries/export", entriesHandler.Export)
			r.Get("/entries/tags", entriesHandler.Tags)
			r.With(middleware.RequireJSON).Post("/entries/tags/suggest", entriesHandler.SuggestTags)
			r.Get("/entries/{id}", entriesHandler.Get)
			r.With(middleware.RequireJSON).Put("/entries/{id}", entriesHandler.Update)
			r.Delete("/entries/{id}", entriesHandler.Delete)

			// Settings
			r.Get("/settings", settingsHandler.Get)
			r.With(middleware.RequireJSON).Put("/settings", settingsHandler.Update)
			r.Get("/settings/categories", settingsHandler.ListCategories)
			r.With(middleware.RequireJSON).Post("/settings/categories", settingsHandler.CreateCategory)
			r.With(middleware.RequireJSON).Put("/settings/categories/{id}", settingsHandler.UpdateCategory)
			r.Delete("/settings/categories/{id}", settingsHandler.DeleteCategory)

			// Prompts
			r.Get("/prompts", promptsHandler.List)
			r.With(middleware.RequireJSON).Post("/prompts", promptsHandler.Create)
			r.Get("/prompts/category/{category}", promptsHandler.ByCategory)
			r.With(expensiveRateLimit).Post("/prompts/generate", promptsHandler.Generate)
			r.Get("/prompts/{id}", promptsHandler.Get)
			r.With(middleware.RequireJSON).Put("/prompts/{id}", promptsHandler.Update)
			r.Delete("/prompts/{id}", promptsHandler.Delete)

			// Analytics
			r.Get("/analytics", analyticsHandler.Get)
			r.With(middleware.RequireJSON).Post("/analytics", analyticsHandler.Track)
			r.Get("/analytics/mood", analyticsHandler.Mood)
		})
	})

	return r
}
