package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/api/models"
	"github.com/quillnote/quillnote/internal/api/response"
	"github.com/quillnote/quillnote/internal/backend"
)

// ExportFormats are the formats accepted by GET /entries/export.
var ExportFormats = []string{"json", "csv", "markdown", "pdf"}

// EntriesHandler proxies journal entry endpoints.
type EntriesHandler struct {
	proxy
}

// NewEntriesHandler creates a new EntriesHandler.
func NewEntriesHandler(b Backend, logger zerolog.Logger) *EntriesHandler {
	return &EntriesHandler{proxy{backend: b, logger: logger}}
}

// List handles GET /api/entries.
func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodGet,
		Path:   "/entries",
		Query:  r.URL.Query(),
	}, 0, "Failed to fetch entries")
}

// Create handles POST /api/entries.
func (h *EntriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readValidated(w, r, &models.CreateEntryRequest{})
	if !ok {
		return
	}
	h.forward(w, r, backend.Request{
		Method: http.MethodPost,
		Path:   "/entries",
		Body:   body,
	}, http.StatusCreated, "Failed to create entry")
}

// Search handles GET /api/entries/search.
func (h *EntriesHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("q")) == "" {
		response.BadRequest(w, r, "q is required", []models.FieldError{
			{Field: "q", Message: "q is required", Code: models.CodeRequired},
		})
		return
	}
	h.forward(w, r, backend.Request{
		Method: http.MethodGet,
		Path:   "/entries/search",
		Query:  q,
	}, 0, "Failed to search entries")
}

// Export handles GET /api/entries/export. The upstream body and its
// Content-Type and Content-Disposition headers are relayed unmodified.
func (h *EntriesHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	if !validExportFormat(format) {
		msg := "format must be one of " + strings.Join(ExportFormats, ", ")
		response.BadRequest(w, r, msg, []models.FieldError{
			{Field: "format", Message: msg, Code: models.CodeInvalid},
		})
		return
	}
	q.Set("format", format)

	resp, err := h.backend.Do(r.Context(), backend.Request{
		Method: http.MethodGet,
		Path:   "/entries/export",
		Query:  q,
		Token:  accessToken(r),
		Accept: "*/*",
	})
	if err != nil {
		h.fail(w, r, err, "Failed to export entries")
		return
	}

	extra := http.Header{}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		extra.Set("Content-Disposition", cd)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	response.Raw(w, r, resp.StatusCode, contentType, extra, resp.Body)
}

// Tags handles GET /api/entries/tags.
func (h *EntriesHandler) Tags(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodGet,
		Path:   "/entries/tags",
		Query:  r.URL.Query(),
	}, 0, "Failed to fetch tags")
}

// SuggestTags handles POST /api/entries/tags/suggest.
func (h *EntriesHandler) SuggestTags(w http.ResponseWriter, r *http.Request) {
	body, ok := readValidated(w, r, &models.TagSuggestRequest{})
	if !ok {
		return
	}
	h.forward(w, r, backend.Request{
		Method: http.MethodPost,
		Path:   "/entries/tags/suggest",
		Body:   body,
	}, 0, "Failed to suggest tags")
}

// Get handles GET /api/entries/{id}.
func (h *EntriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodGet,
		Path:   resourcePath("/entries", chi.URLParam(r, "id")),
		Route:  "/entries/{id}",
	}, 0, "Failed to fetch entry")
}

// Update handles PUT /api/entries/{id}.
func (h *EntriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := readObject(w, r)
	if !ok {
		return
	}
	h.forward(w, r, backend.Request{
		Method: http.MethodPut,
		Path:   resourcePath("/entries", chi.URLParam(r, "id")),
		Route:  "/entries/{id}",
		Body:   body,
	}, 0, "Failed to update entry")
}

// Delete handles DELETE /api/entries/{id}.
func (h *EntriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodDelete,
		Path:   resourcePath("/entries", chi.URLParam(r, "id")),
		Route:  "/entries/{id}",
	}, 0, "Failed to delete entry")
}

func validExportFormat(format string) bool {
	for _, f := range ExportFormats {
		if f == format {
			return true
		}
	}
	return false
}
