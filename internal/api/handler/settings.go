package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/api/models"
	"github.com/quillnote/quillnote/internal/backend"
)

// SettingsHandler proxies user settings and category endpoints.
type SettingsHandler struct {
	proxy
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(b Backend, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{proxy{backend: b, logger: logger}}
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{Method: http.MethodGet, Path: "/settings"}, 0, "Failed to fetch settings")
}

// Update handles PUT /api/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := readObject(w, r)
	if !ok {
		return
	}
	h.forward(w, r, backend.Request{
		Method: http.MethodPut,
		Path:   "/settings",
		Body:   body,
	}, 0, "Failed to update settings")
}

// ListCategories handles GET /api/settings/categories.
func (h *SettingsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodGet,
		Path:   "/settings/categories",
	}, 0, "Failed to fetch categories")
}

// CreateCategory handles POST /api/settings/categories.
func (h *SettingsHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	body, ok := readValidated(w, r, &models.CreateCategoryRequest{})
	if !ok {
		return
	}
	h.forward(w, r, backend.Request{
		Method: http.MethodPost,
		Path:   "/settings/categories",
		Body:   body,
	}, 0, "Failed to create category")
}

// UpdateCategory handles PUT /api/settings/categories/{id}.
func (h *SettingsHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	body, ok := readObject(w, r)
	if !ok {
		return
	}
	h.forward(w, r, backend.Request{
		Method: http.MethodPut,
		Path:   resourcePath("/settings/categories", chi.URLParam(r, "id")),
		Route:  "/settings/categories/{id}",
		Body:   body,
	}, 0, "Failed to update category")
}

// DeleteCategory handles DELETE /api/settings/categories/{id}.
func (h *SettingsHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, backend.Request{
		Method: http.MethodDelete,
		Path:   resourcePath("/settings/categories", chi.URLParam(r, "id")),
		Route:  "/settings/categories/{id}",
	}, 0, "Failed to delete category")
}
