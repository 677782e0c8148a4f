// Package apperrors defines the typed error envelope shared by the CLI
// and HTTP surfaces.
package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code is a semantic error code carried across process boundaries.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeRequiredField Code = "REQUIRED_FIELD"
	CodeInvalidValue  Code = "INVALID_VALUE"
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeStorage       Code = "STORAGE_ERROR"
	CodeTimeout       Code = "TIMEOUT"
	CodeInternal      Code = "INTERNAL_ERROR"
)

// AppError is the unified error structure returned by API handlers and
// surfaced by the CLI.
type AppError struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`

	cause error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.cause }

// WithTraceID attaches a trace ID for correlation with log entries.
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// FieldDetail describes a single failed validation check.
type FieldDetail struct {
	Field  string      `json:"field"`
	Reason string      `json:"reason"`
	Value  interface{} `json:"value,omitempty"`
}

// New creates an AppError with an arbitrary code.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NewValidation creates a validation error for a specific field.
func NewValidation(field, reason string, value interface{}) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("validation failed for field %q: %s", field, reason),
		Details: FieldDetail{Field: field, Reason: reason, Value: value},
	}
}

// NewRequiredField creates an error for a missing required field.
func NewRequiredField(field string) *AppError {
	return &AppError{
		Code:    CodeRequiredField,
		Message: fmt.Sprintf("required field %q is missing", field),
		Details: FieldDetail{Field: field, Reason: "missing_required_field"},
	}
}

// NewNotFound creates a not-found error for a named resource.
func NewNotFound(resource, name string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, name),
	}
}

// NewAlreadyExists creates a duplicate-resource error.
func NewAlreadyExists(resource, name string) *AppError {
	return &AppError{
		Code:    CodeAlreadyExists,
		Message: fmt.Sprintf("%s %q already exists", resource, name),
	}
}

// NewStorage wraps a storage failure.
func NewStorage(message string, cause error) *AppError {
	return &AppError{Code: CodeStorage, Message: message, cause: cause}
}

// NewInternal wraps an unexpected failure.
func NewInternal(message string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, cause: cause}
}

// HTTPStatus maps the code to an HTTP status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeRequiredField, CodeInvalidValue:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeStorage, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP writes the error as a JSON response body.
func (e *AppError) WriteHTTP(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if e.TraceID != "" {
		w.Header().Set("X-Trace-ID", e.TraceID)
	}
	w.WriteHeader(e.HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": e})
}

// AsAppError extracts an AppError from an error chain, wrapping unknown
// errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal("unexpected error", err)
}

// IsValidation reports whether err is any validation-class error.
func IsValidation(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case CodeValidation, CodeRequiredField, CodeInvalidValue:
		return true
	}
	return false
}
