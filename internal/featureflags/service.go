package featureflags

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository   Repository
	Logger       zerolog.Logger
	CacheTTL     time.Duration
	DefaultFlags map[string]*Flag
}

// Service evaluates flags with a read-through cache and falls back to
// defaults when the repository fails.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration
	defaults map[string]*Flag

	mu    sync.RWMutex
	cache map[string]cachedFlag
	now   func() time.Time
}

type cachedFlag struct {
	flag    *Flag
	expires time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	defaults := cfg.DefaultFlags
	if defaults == nil {
		defaults = DefaultFlags(false)
	}
	repo := cfg.Repository
	if repo == nil {
		repo = NewInMemoryRepository()
	}

	return &Service{
		repo:     repo,
		logger:   cfg.Logger,
		cacheTTL: ttl,
		defaults: defaults,
		cache:    make(map[string]cachedFlag),
		now:      time.Now,
	}
}

// GetFlag returns the current value of key: cached, stored, or default. Nil when unknown.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if flag, ok := s.getCached(key); ok {
		return flag
	}

	flag, err := s.repo.GetFlag(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, ErrFlagNotFound):
		flag = s.defaults[key]
	default:
		s.logger.Warn().Err(err).Str("flag", key).Msg("failed to read feature flag, using default")
		// Not cached so the next call retries the repository.
		return s.defaults[key]
	}

	s.setCached(key, flag)
	return flag
}

// GetAllFlags returns defaults overlaid with stored values.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	out := make(map[string]*Flag, len(s.defaults))
	for k, v := range s.defaults {
		out[k] = v
	}

	stored, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read feature flags, using defaults")
		return out
	}
	for k, v := range stored {
		out[k] = v
	}
	return out
}

// SetFlag stores a flag and refreshes its cache entry.
func (s *Service) SetFlag(ctx context.Context, key string, enabled bool) error {
	flag := &Flag{Key: key, Enabled: enabled, UpdatedAt: s.now()}
	if err := s.repo.SetFlag(ctx, flag); err != nil {
		return err
	}
	s.setCached(key, flag)
	return nil
}

// IsEnabled reports whether key is on.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).IsEnabled()
}

// UseMockData reports whether mock-eligible endpoints should skip the backend.
func (s *Service) UseMockData(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagUseMockData)
}

// PromptGenerationDisabled reports whether prompt generation is switched off.
func (s *Service) PromptGenerationDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisablePromptGeneration)
}

// InvalidateCache drops all cached values.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cachedFlag)
}

func (s *Service) getCached(key string) (*Flag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || !s.now().Before(entry.expires) {
		return nil, false
	}
	return entry.flag, true
}

func (s *Service) setCached(key string, flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cachedFlag{flag: flag, expires: s.now().Add(s.cacheTTL)}
}
