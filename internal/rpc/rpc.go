// Package rpc serves a small set of typed procedures over HTTP.
//
// Procedures are registered with a typed input and output and invoked with
// POST /rpc/{procedure}. The reply is {"result":{"data": <output>}}.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

var (
	// ErrProcedureNotFound is returned for an unregistered procedure name.
	ErrProcedureNotFound = errors.New("procedure not found")

	// ErrBadInput is returned when the input cannot be decoded or is invalid.
	ErrBadInput = errors.New("bad input")
)

// Validator is implemented by inputs that check themselves after decoding.
type Validator interface {
	Validate() error
}

type procedure func(ctx context.Context, input json.RawMessage) (any, error)

// Router maps procedure names to handlers.
type Router struct {
	mu    sync.RWMutex
	procs map[string]procedure
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{procs: make(map[string]procedure)}
}

// Register adds a typed procedure. Registering a name twice replaces it.
func Register[I, O any](r *Router, name string, fn func(ctx context.Context, in I) (O, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.procs[name] = func(ctx context.Context, raw json.RawMessage) (any, error) {
		var in I
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &in); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrBadInput, err.Error())
			}
		}
		if v, ok := any(&in).(Validator); ok {
			if err := v.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrBadInput, err.Error())
			}
		}
		return fn(ctx, in)
	}
}

// Call invokes the named procedure with a JSON input.
func (r *Router) Call(ctx context.Context, name string, input json.RawMessage) (any, error) {
	r.mu.RLock()
	proc, ok := r.procs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProcedureNotFound, name)
	}
	return proc(ctx, input)
}

// Procedures returns the registered names in sorted order.
func (r *Router) Procedures() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.procs))
	for name := range r.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result is the response envelope.
type Result struct {
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

// NewResult wraps data in the response envelope.
func NewResult(data any) Result {
	var r Result
	r.Result.Data = data
	return r
}

// ReadInput reads a request body. An empty body is a null input.
func ReadInput(body io.Reader, limit int64) (json.RawMessage, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit))
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrBadInput)
	}
	return data, nil
}
