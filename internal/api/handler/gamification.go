package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/api/middleware"
	"github.com/quillnote/quillnote/internal/api/models"
	"github.com/quillnote/quillnote/internal/api/response"
	"github.com/quillnote/quillnote/internal/backend"
	"github.com/quillnote/quillnote/internal/fixtures"
	"github.com/quillnote/quillnote/internal/gamification"
	"github.com/quillnote/quillnote/internal/journal"
	"github.com/quillnote/quillnote/internal/observability"
)

const (
	endpointStats        = "gamification.stats"
	endpointTransactions = "gamification.transactions"
)

// GamificationHandlerConfig holds the dependencies of GamificationHandler.
type GamificationHandlerConfig struct {
	Backend    Backend
	Flags      Flags
	Fixtures   fixtures.Fixtures
	Calculator *gamification.Calculator
	Metrics    *observability.Metrics
	Logger     zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// GamificationHandler serves stats and transactions. Both endpoints are
// mock-eligible and never answer with an error once input is valid.
type GamificationHandler struct {
	backend Backend
	calc    *gamification.Calculator
	mock    mockFallback
	logger  zerolog.Logger
	now     func() time.Time
}

// NewGamificationHandler creates a new GamificationHandler.
func NewGamificationHandler(cfg GamificationHandlerConfig) *GamificationHandler {
	if cfg.Calculator == nil {
		cfg.Calculator = gamification.NewCalculator(gamification.DefaultRules())
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &GamificationHandler{
		backend: cfg.Backend,
		calc:    cfg.Calculator,
		mock: mockFallback{
			fixtures: cfg.Fixtures,
			flags:    cfg.Flags,
			metrics:  cfg.Metrics,
			logger:   cfg.Logger,
		},
		logger: cfg.Logger,
		now:    cfg.Now,
	}
}

// Stats handles GET /api/gamification/stats.
//
// Backend stats with a positive balance win. Otherwise stats are calculated
// from the user's entries, and if those cannot be fetched the baseline is served.
func (h *GamificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	mode, ok := gamification.ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		msg := "mode must be one of basic, ai"
		response.BadRequest(w, r, msg, []models.FieldError{
			{Field: "mode", Message: msg, Code: models.CodeInvalid},
		})
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if reason := h.mock.reason(ctx); reason != "" {
		h.mock.record(r, endpointStats, reason, nil)
		stats := h.calc.Default(userID, mode)
		stats.Source = gamification.SourceMock
		response.JSON(w, r, http.StatusOK, stats)
		return
	}

	token := accessToken(r)
	remote := h.fetchStats(ctx, token, mode)

	stats := gamification.Select(remote, func() gamification.Stats {
		entries, err := h.fetchEntries(ctx, token)
		if err != nil {
			h.mock.record(r, endpointStats, ReasonBackendError, err)
			return h.calc.Default(userID, mode)
		}
		return h.calc.Calculate(entries, userID, mode, h.now())
	})
	if stats.UserID == "" {
		stats.UserID = userID
	}

	response.JSON(w, r, http.StatusOK, stats)
}

// Transactions handles GET /api/gamification/transactions.
func (h *GamificationHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "limit", Message: err.Error(), Code: models.CodeInvalid},
		})
		return
	}

	ctx := r.Context()
	if reason := h.mock.reason(ctx); reason != "" {
		h.mock.record(r, endpointTransactions, reason, nil)
		response.JSON(w, r, http.StatusOK, h.mock.fixtures.TransactionsPage(limit))
		return
	}

	resp, err := h.backend.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/gamification/transactions",
		Query:  r.URL.Query(),
		Token:  accessToken(r),
	})
	if err != nil {
		h.mock.record(r, endpointTransactions, ReasonBackendError, err)
		response.JSON(w, r, http.StatusOK, h.mock.fixtures.TransactionsPage(limit))
		return
	}
	response.RawJSON(w, r, resp.StatusCode, resp.Body)
}

// fetchStats returns the backend's stats, or nil when they are unavailable.
func (h *GamificationHandler) fetchStats(ctx context.Context, token string, mode gamification.Mode) *gamification.Stats {
	resp, err := h.backend.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/gamification/stats",
		Query:  url.Values{"mode": {string(mode)}},
		Token:  token,
	})
	if err != nil {
		h.logger.Debug().Err(err).Msg("backend stats unavailable")
		return nil
	}

	var stats gamification.Stats
	if err := resp.Decode(&stats); err != nil {
		h.logger.Debug().Err(err).Msg("backend stats undecodable")
		return nil
	}
	return &stats
}

func (h *GamificationHandler) fetchEntries(ctx context.Context, token string) ([]journal.Entry, error) {
	resp, err := h.backend.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/entries",
		Token:  token,
	})
	if err != nil {
		return nil, err
	}
	entries, err := journal.DecodeEntries(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding entries: %w", err)
	}
	return entries, nil
}

var errLimit = errors.New("limit must be a positive integer")

// parseLimit parses an optional positive limit. An empty value means no limit.
func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errLimit
	}
	return n, nil
}
