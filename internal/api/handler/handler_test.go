package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/quillnote/quillnote/internal/api/middleware"
	"github.com/quillnote/quillnote/internal/api/models"
	"github.com/quillnote/quillnote/internal/backend"
	"github.com/quillnote/quillnote/internal/session"
)

// fakeBackend answers per "METHOD path" and records every call.
type fakeBackend struct {
	mu       sync.Mutex
	routes   map[string]func(req backend.Request) (*backend.Response, error)
	requests []backend.Request
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{routes: make(map[string]func(backend.Request) (*backend.Response, error))}
}

func (f *fakeBackend) on(method, path string, fn func(req backend.Request) (*backend.Response, error)) {
	f.routes[method+" "+path] = fn
}

func (f *fakeBackend) respond(method, path string, status int, body string) {
	f.on(method, path, func(backend.Request) (*backend.Response, error) {
		return &backend.Response{StatusCode: status, Header: http.Header{}, Body: []byte(body)}, nil
	})
}

func (f *fakeBackend) fail(method, path string, err error) {
	f.on(method, path, func(backend.Request) (*backend.Response, error) { return nil, err })
}

func (f *fakeBackend) Do(_ context.Context, req backend.Request) (*backend.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn, ok := f.routes[req.Method+" "+req.Path]
	f.mu.Unlock()
	if !ok {
		return nil, errors.New("unexpected backend call: " + req.Method + " " + req.Path)
	}
	return fn(req)
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeBackend) last() backend.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// fakeFlags is a fixed flag set.
type fakeFlags struct {
	mock             bool
	disableGenerated bool
}

func (f fakeFlags) UseMockData(context.Context) bool              { return f.mock }
func (f fakeFlags) PromptGenerationDisabled(context.Context) bool { return f.disableGenerated }

var testLogger = zerolog.New(io.Discard)

var testSession = &session.Session{UserID: "usr_1", Email: "a@example.com", AccessToken: "at_1"}

// newRequest builds a request carrying sess and the given chi URL params.
func newRequest(method, target, body string, sess *session.Session, params map[string]string) *http.Request {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	ctx := req.Context()
	if sess != nil {
		ctx = middleware.WithSession(ctx, sess)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
