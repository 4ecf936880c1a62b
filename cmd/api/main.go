// Package main provides the entrypoint for the Quillnote API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/api"
	"github.com/quillnote/quillnote/internal/api/middleware"
	"github.com/quillnote/quillnote/internal/backend"
	"github.com/quillnote/quillnote/internal/config"
	"github.com/quillnote/quillnote/internal/database"
	"github.com/quillnote/quillnote/internal/featureflags"
	"github.com/quillnote/quillnote/internal/fixtures"
	"github.com/quillnote/quillnote/internal/health"
	"github.com/quillnote/quillnote/internal/observability"
	"github.com/quillnote/quillnote/internal/provider/resilience"
	"github.com/quillnote/quillnote/internal/rpc"
	"github.com/quillnote/quillnote/internal/session"
	"github.com/quillnote/quillnote/internal/telemetry"
	"github.com/quillnote/quillnote/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "quillnote-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Quillnote API")

	cfg, err := config.Load(os.Getenv("QUILLNOTE_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.NewConfig(cfg, serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Float64("sample_ratio", cfg.Telemetry.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := observability.NewMetrics(registry)

	// Connect to database when configured
	var pool *pgxpool.Pool
	if cfg.Database.Enabled() {
		pool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().Int("max_conns", cfg.Database.MaxConns).Msg("database connected")
	}

	// Session resolution
	var (
		sessionStore   session.Store
		sessionSweeper worker.SessionSweeper
	)
	switch cfg.Session.Strategy {
	case config.SessionStrategyDatabase:
		pgStore := session.NewPostgresStore(pool)
		sessionStore = pgStore
		sessionSweeper = pgStore
	default:
		sessionStore = session.NewJWTVerifier(session.JWTConfig{
			Secret:   cfg.Session.Secret,
			Issuer:   cfg.Session.Issuer,
			Audience: cfg.Session.Audience,
		})
	}
	resolver := session.NewResolver(sessionStore, cfg.Session.CookieName)
	log.Info().Str("strategy", cfg.Session.Strategy).Msg("session resolver initialized")

	// Feature flags
	var flagRepo featureflags.Repository = featureflags.NewInMemoryRepository()
	if pool != nil {
		flagRepo = featureflags.NewPostgresRepository(pool)
	}
	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository:   flagRepo,
		Logger:       log,
		CacheTTL:     30 * time.Second,
		DefaultFlags: featureflags.DefaultFlags(cfg.UseMockData),
	})

	// Backend client behind the circuit breaker
	upstreamCfg := resilience.DefaultClientConfig(backend.ProviderName)
	upstreamCfg.Timeout = cfg.Upstream.Timeout
	upstreamCfg.MaxRetries = cfg.Upstream.MaxRetries
	upstream := resilience.NewClient(upstreamCfg)

	backendClient := backend.NewClient(backend.ClientConfig{
		BaseURL:    cfg.ExternalAPIBaseURL,
		HTTPClient: upstream,
		Metrics:    appMetrics,
		Logger:     log,
	})

	checker := health.NewChecker(health.CheckerConfig{
		BaseURL:      backendClient.BaseURL(),
		ProbeTimeout: cfg.Health.ProbeTimeout,
		Metrics:      appMetrics,
		Logger:       log,
	})

	rpcRouter := rpc.NewRouter()
	rpc.RegisterDefaults(rpcRouter, time.Now)

	// Maintenance jobs
	jobs := []worker.Job{worker.HealthProbeJob(checker, cfg.Worker.HealthProbeInterval, log)}
	if sessionSweeper != nil {
		jobs = append(jobs, worker.SessionSweepJob(sessionSweeper, cfg.Worker.SessionSweepInterval, log))
	}
	scheduler := worker.NewScheduler(log, jobs...)

	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		RequireTLS:         cfg.RequireTLS,
		Metrics:            httpMetrics,
		AppMetrics:         appMetrics,
		Gatherer:           registry,
		Sessions:           resolver,
		Backend:            backendClient,
		Upstream:           upstream,
		FeatureFlags:       flags,
		Fixtures:           fixtures.Default(),
		Health:             checker,
		RPC:                rpcRouter,
		Jobs:               scheduler,
		BaseURL:            backendClient.BaseURL(),
		BackendTestTimeout: cfg.Health.BackendTestTimeout,
	})

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		scheduler.Run(ctx)
	}()

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: upstream.Timeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("backend", backendClient.BaseURL()).
			Bool("use_mock_data", cfg.UseMockData).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	<-workerDone

	log.Info().Msg("server stopped")
}
