package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/api/models"
	"github.com/quillnote/quillnote/internal/api/response"
	"github.com/quillnote/quillnote/internal/backend"
	"github.com/quillnote/quillnote/internal/provider/resilience"
)

// maxBodyBytes caps request bodies read by handlers.
const maxBodyBytes = 1 << 20

const msgInvalidJSON = "invalid JSON body"

// Backend is the external journal API.
type Backend interface {
	Do(ctx context.Context, req backend.Request) (*backend.Response, error)
}

// Flags is the subset of feature flags handlers consult.
type Flags interface {
	UseMockData(ctx context.Context) bool
	PromptGenerationDisabled(ctx context.Context) bool
}

// proxy forwards requests to the backend on behalf of the session user.
type proxy struct {
	backend Backend
	logger  zerolog.Logger
}

// forward sends req with the caller's access token and relays the result.
// A non-zero status overrides the upstream success status.
func (p proxy) forward(w http.ResponseWriter, r *http.Request, req backend.Request, status int, failMsg string) {
	req.Token = accessToken(r)
	resp, err := p.backend.Do(r.Context(), req)
	if err != nil {
		p.fail(w, r, err, failMsg)
		return
	}

	switch {
	case req.Method == http.MethodDelete, resp.StatusCode == http.StatusNoContent:
		response.NoContent(w, r)
	case status != 0:
		response.RawJSON(w, r, status, resp.Body)
	default:
		response.RawJSON(w, r, resp.StatusCode, resp.Body)
	}
}

// fail maps a backend error onto the error envelope. Upstream statuses are
// mirrored, an open circuit is 503 and anything else is 500.
func (p proxy) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	p.logger.Error().
		Err(err).
		Str("request_id", requestID(r)).
		Str("path", r.URL.Path).
		Int("upstream_status", backend.StatusCode(err)).
		Msg(msg)

	var statusErr *backend.StatusError
	switch {
	case errors.As(err, &statusErr):
		m := statusErr.Detail
		if m == "" {
			m = msg
		}
		response.Error(w, r, statusErr.StatusCode, m)
	case errors.Is(err, resilience.ErrCircuitOpen):
		response.ServiceUnavailable(w, r, msg)
	default:
		response.InternalError(w, r, msg)
	}
}

// readObject reads the request body and requires it to be a JSON object.
// On failure it writes a 400 and returns false.
func readObject(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !isJSONObject(body) {
		response.BadRequest(w, r, msgInvalidJSON, nil)
		return nil, false
	}
	return body, true
}

type validatable interface {
	Validate() []models.FieldError
}

// readValidated reads a JSON object, decodes it into v and validates it.
// The raw body is returned so fields v does not model reach the backend.
func readValidated(w http.ResponseWriter, r *http.Request, v validatable) (json.RawMessage, bool) {
	body, ok := readObject(w, r)
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal(body, v); err != nil {
		response.BadRequest(w, r, msgInvalidJSON, nil)
		return nil, false
	}
	if errs := v.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, models.ValidationMessage(errs), errs)
		return nil, false
	}
	return body, true
}

func isJSONObject(data []byte) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(data, &m) == nil && m != nil
}

// resourcePath joins a collection path and an escaped id.
func resourcePath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}
