// Package models provides request and response models for the Quillnote API.
package models

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	// Error is a human-readable message.
	Error string `json:"error"`

	// Errors lists field-level validation failures.
	Errors []FieldError `json:"errors,omitempty"`

	// TraceID is the request id, for correlating with logs.
	TraceID string `json:"traceId,omitempty"`

	status int
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Field error codes.
const (
	CodeRequired = "REQUIRED"
	CodeInvalid  = "INVALID"
)

// NewError creates an error response with the given status.
func NewError(status int, traceID, message string) *ErrorResponse {
	return &ErrorResponse{Error: message, TraceID: traceID, status: status}
}

// WithErrors adds field errors.
func (e *ErrorResponse) WithErrors(errs []FieldError) *ErrorResponse {
	e.Errors = errs
	return e
}

// Status returns the HTTP status of the response.
func (e *ErrorResponse) Status() int {
	return e.status
}

// Write writes the error as JSON.
func (e *ErrorResponse) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if e.TraceID != "" {
		w.Header().Set("X-Request-Id", e.TraceID)
	}
	w.WriteHeader(e.status)
	_ = json.NewEncoder(w).Encode(e)
}
