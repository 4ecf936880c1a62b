package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/api/models"
	"github.com/quillnote/quillnote/internal/api/response"
	"github.com/quillnote/quillnote/internal/backend"
	"github.com/quillnote/quillnote/internal/fixtures"
	"github.com/quillnote/quillnote/internal/observability"
)

const endpointDailyPrompt = "prompts.daily"

// MsgPromptGenerationDisabled is returned while prompt generation is switched off.
const MsgPromptGenerationDisabled = "Prompt generation is currently disabled"

// PromptsHandlerConfig holds the dependencies of PromptsHandler.
type PromptsHandlerConfig struct {
	Backend  Backend
	Flags    Flags
	Fixtures fixtures.Fixtures
	Metrics  *observability.Metrics
	Logger   zerolog.Logger
}

// PromptsHandler proxies journaling prompt endpoints.
type PromptsHandler struct {
	proxy
	mock mockFallback
}

// NewPromptsHandler creates a new PromptsHandler.
func NewPromptsHandler(cfg PromptsHandlerConfig) *PromptsHandler {
	return &PromptsHandler{
		proxy: proxy{backend: cfg.Backend, logger: cfg.Logger},
		mock: mockFallback{
			fixtures: cfg.Fixtures,
			flags:    cfg.Flags,
			metrics:  cfg.Metrics,
			logger:   cfg.Logger,
		},
	}
}

// List handles GET /api/prompts.
func (h *PromptsHandler) List(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodGet,
		Path:   "/prompts",
		Query:  r.URL.Query(),
	}, 0, "Failed to fetch prompts")
}

// Create handles POST /api/prompts.
func (h *PromptsHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readValidated(w, r, &models.CreatePromptRequest{})
	if !ok {
		return
	}
	h.forward(w, r, backend.Request{
		Method: http.MethodPost,
		Path:   "/prompts",
		Body:   body,
	}, 0, "Failed to create prompt")
}

// Get handles GET /api/prompts/{id}.
func (h *PromptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodGet,
		Path:   resourcePath("/prompts", chi.URLParam(r, "id")),
		Route:  "/prompts/{id}",
	}, 0, "Failed to fetch prompt")
}

// Update handles PUT /api/prompts/{id}.
func (h *PromptsHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := readObject(w, r)
	if !ok {
		return
	}
	h.forward(w, r, backend.Request{
		Method: http.MethodPut,
		Path:   resourcePath("/prompts", chi.URLParam(r, "id")),
		Route:  "/prompts/{id}",
		Body:   body,
	}, 0, "Failed to update prompt")
}

// Delete handles DELETE /api/prompts/{id}.
func (h *PromptsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodDelete,
		Path:   resourcePath("/prompts", chi.URLParam(r, "id")),
		Route:  "/prompts/{id}",
	}, 0, "Failed to delete prompt")
}

// ByCategory handles GET /api/prompts/category/{category}.
func (h *PromptsHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodGet,
		Path:   resourcePath("/prompts/category", chi.URLParam(r, "category")),
		Route:  "/prompts/category/{category}",
		Query:  r.URL.Query(),
	}, 0, "Failed to fetch prompts")
}

// Daily handles GET /api/prompts/daily. It never fails: without a session,
// with mock data enabled, or when the backend fails, the fixture prompt is served.
func (h *PromptsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	if reason := h.mock.reason(r.Context()); reason != "" {
		h.mock.record(r, endpointDailyPrompt, reason, nil)
		response.JSON(w, r, http.StatusOK, h.mock.fixtures.DailyPrompt)
		return
	}

	resp, err := h.backend.Do(r.Context(), backend.Request{
		Method: http.MethodGet,
		Path:   "/prompts/daily",
		Token:  accessToken(r),
	})
	if err != nil {
		h.mock.record(r, endpointDailyPrompt, ReasonBackendError, err)
		response.JSON(w, r, http.StatusOK, h.mock.fixtures.DailyPrompt)
		return
	}
	response.RawJSON(w, r, resp.StatusCode, resp.Body)
}

// Generate handles POST /api/prompts/generate. The body is optional; when
// present it must be a JSON object.
func (h *PromptsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.mock.flags != nil && h.mock.flags.PromptGenerationDisabled(r.Context()) {
		response.ServiceUnavailable(w, r, MsgPromptGenerationDisabled)
		return
	}

	req := backend.Request{Method: http.MethodPost, Path: "/prompts/generate"}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		response.BadRequest(w, r, msgInvalidJSON, nil)
		return
	}
	if len(body) > 0 {
		if !isJSONObject(body) {
			response.BadRequest(w, r, msgInvalidJSON, nil)
			return
		}
		req.Body = body
	}

	h.forward(w, r, req, 0, "Failed to generate prompt")
}
