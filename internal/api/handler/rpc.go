package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/api/response"
	"github.com/quillnote/quillnote/internal/rpc"
)

// RPCHandler serves typed procedures.
type RPCHandler struct {
	router *rpc.Router
	logger zerolog.Logger
}

// NewRPCHandler creates a new RPCHandler.
func NewRPCHandler(router *rpc.Router, logger zerolog.Logger) *RPCHandler {
	return &RPCHandler{router: router, logger: logger}
}

// List handles GET /api/rpc.
func (h *RPCHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string][]string{"procedures": h.router.Procedures()})
}

// Call handles POST /api/rpc/{procedure}.
func (h *RPCHandler) Call(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "procedure")

	input, err := rpc.ReadInput(r.Body, maxBodyBytes)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	out, err := h.router.Call(r.Context(), name, input)
	switch {
	case errors.Is(err, rpc.ErrProcedureNotFound):
		response.NotFound(w, r, "Unknown procedure: "+name)
	case errors.Is(err, rpc.ErrBadInput):
		response.BadRequest(w, r, err.Error(), nil)
	case err != nil:
		h.logger.Error().Err(err).Str("procedure", name).Msg("procedure failed")
		response.InternalError(w, r, "Procedure failed")
	default:
		response.JSON(w, r, http.StatusOK, rpc.NewResult(out))
	}
}
