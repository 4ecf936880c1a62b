// Package config loads runtime configuration for the Quillnote API.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session strategies.
const (
	SessionStrategyJWT      = "jwt"
	SessionStrategyDatabase = "database"
)

// Config holds all runtime configuration.
type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	RequireTLS  bool   `yaml:"require_tls"`

	// ExternalAPIBaseURL is the base URL every proxied call is forwarded to.
	ExternalAPIBaseURL string `yaml:"external_api_base_url"`

	// UseMockData makes mock-eligible endpoints serve fixtures without calling the backend.
	UseMockData bool `yaml:"use_mock_data"`

	Session   SessionConfig   `yaml:"session"`
	Database  DatabaseConfig  `yaml:"database"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Health    HealthConfig    `yaml:"health"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Worker    WorkerConfig    `yaml:"worker"`
}

// SessionConfig configures identity-provider session resolution.
type SessionConfig struct {
	Strategy   string `yaml:"strategy"`
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
	CookieName string `yaml:"cookie_name"`
}

// DatabaseConfig configures the optional PostgreSQL pool.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxConns        int           `yaml:"max_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// UpstreamConfig configures calls to the external backend.
type UpstreamConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint64        `yaml:"max_retries"`
}

// HealthConfig configures the health aggregator and the connectivity test.
type HealthConfig struct {
	ProbeTimeout       time.Duration `yaml:"probe_timeout"`
	BackendTestTimeout time.Duration `yaml:"backend_test_timeout"`
}

// WorkerConfig configures the in-process maintenance jobs. A zero interval
// disables a job.
type WorkerConfig struct {
	HealthProbeInterval  time.Duration `yaml:"health_probe_interval"`
	SessionSweepInterval time.Duration `yaml:"session_sweep_interval"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	// SampleRatio is the fraction of root traces sampled, in [0, 1].
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the configuration used for local development.
func Default() Config {
	return Config{
		Port:               "8080",
		Environment:        "development",
		ExternalAPIBaseURL: "http://localhost:8000/api/v1",
		Session: SessionConfig{
			Strategy:   SessionStrategyJWT,
			Secret:     "local-dev-session-secret-change-in-production",
			Issuer:     "https://auth.quillnote.app",
			Audience:   "quillnote-api",
			CookieName: "quillnote.session-token",
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Upstream: UpstreamConfig{
			Timeout: 30 * time.Second,
		},
		Health: HealthConfig{
			ProbeTimeout:       5 * time.Second,
			BackendTestTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			SampleRatio:  1,
		},
		Worker: WorkerConfig{
			HealthProbeInterval:  time.Minute,
			SessionSweepInterval: 10 * time.Minute,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment,
// in that order of precedence (environment wins).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("APP_PORT", cfg.Port)
	cfg.Environment = getEnv("APP_ENV", cfg.Environment)
	cfg.RequireTLS = getBoolEnv("REQUIRE_TLS", cfg.RequireTLS)
	cfg.ExternalAPIBaseURL = strings.TrimRight(getEnv("EXTERNAL_API_BASE_URL", cfg.ExternalAPIBaseURL), "/")
	cfg.UseMockData = getBoolEnv("USE_MOCK_DATA", cfg.UseMockData)

	cfg.Session.Strategy = getEnv("SESSION_STRATEGY", cfg.Session.Strategy)
	cfg.Session.Secret = getEnv("SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.Issuer = getEnv("SESSION_ISSUER", cfg.Session.Issuer)
	cfg.Session.Audience = getEnv("SESSION_AUDIENCE", cfg.Session.Audience)
	cfg.Session.CookieName = getEnv("SESSION_COOKIE_NAME", cfg.Session.CookieName)

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxConns = getIntEnv("DB_MAX_CONNS", cfg.Database.MaxConns)
	cfg.Database.ConnMaxLifetime = getDurationEnv("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)

	cfg.Upstream.Timeout = getDurationEnv("UPSTREAM_TIMEOUT", cfg.Upstream.Timeout)
	cfg.Upstream.MaxRetries = uint64(getIntEnv("UPSTREAM_MAX_RETRIES", int(cfg.Upstream.MaxRetries))) //nolint:gosec // validated non-negative below

	cfg.Health.ProbeTimeout = getDurationEnv("HEALTH_PROBE_TIMEOUT", cfg.Health.ProbeTimeout)
	cfg.Health.BackendTestTimeout = getDurationEnv("BACKEND_TEST_TIMEOUT", cfg.Health.BackendTestTimeout)

	cfg.Telemetry.Enabled = getBoolEnv("OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.SampleRatio = getFloatEnv("OTEL_TRACES_SAMPLER_ARG", cfg.Telemetry.SampleRatio)

	cfg.Worker.HealthProbeInterval = getDurationEnv("WORKER_HEALTH_PROBE_INTERVAL", cfg.Worker.HealthProbeInterval)
	cfg.Worker.SessionSweepInterval = getDurationEnv("WORKER_SESSION_SWEEP_INTERVAL", cfg.Worker.SessionSweepInterval)
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.ExternalAPIBaseURL == "" {
		errs = append(errs, errors.New("external API base URL is required"))
	}

	switch c.Session.Strategy {
	case SessionStrategyJWT:
		if c.Session.Secret == "" {
			errs = append(errs, errors.New("session secret is required for the jwt strategy"))
		}
	case SessionStrategyDatabase:
		if !c.Database.Enabled() {
			errs = append(errs, errors.New("database URL is required for the database session strategy"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session strategy %q", c.Session.Strategy))
	}

	if c.Upstream.Timeout <= 0 {
		errs = append(errs, errors.New("upstream timeout must be positive"))
	}
	if c.Health.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("health probe timeout must be positive"))
	}
	if c.Health.BackendTestTimeout <= 0 {
		errs = append(errs, errors.New("backend test timeout must be positive"))
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, errors.New("telemetry sample ratio must be between 0 and 1"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
