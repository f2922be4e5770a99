// Package apperror defines the closed error taxonomy returned by the API and the
// failure variants the request boundary knows how to classify.
//
// Handlers and services return one of:
//
//   - *ValidationError: request input failed schema validation
//   - *AppError: an expected application failure with its own status and kind
//   - *HTTPError: a transport-level failure (oversized body, unreadable input)
//
// Anything else is treated as an unexpected failure and never shown to clients.
package apperror

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind is the machine-readable error tag sent in the "error" field of the envelope.
type Kind string

const (
	KindBadRequest         Kind = "BAD_REQUEST"
	KindValidation         Kind = "VALIDATION_ERROR"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindInternal           Kind = "INTERNAL_ERROR"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
)

var kindStatus = map[Kind]int{
	KindBadRequest:         http.StatusBadRequest,
	KindValidation:         http.StatusBadRequest,
	KindUnauthorized:       http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindConflict:           http.StatusConflict,
	KindInternal:           http.StatusInternalServerError,
	KindServiceUnavailable: http.StatusServiceUnavailable,
}

// Kinds returns every kind of the taxonomy.
func Kinds() []Kind {
	return []Kind{
		KindBadRequest, KindValidation, KindUnauthorized, KindForbidden,
		KindNotFound, KindConflict, KindInternal, KindServiceUnavailable,
	}
}

// Status returns the canonical HTTP status of k, or 500 for a kind outside the taxonomy.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError is an expected failure carrying its own HTTP status, kind and optional details.
type AppError struct {
	StatusCode int
	Kind       Kind
	Message    string
	Details    any
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// New builds an AppError with the canonical status of kind.
func New(kind Kind, message string) *AppError {
	return &AppError{StatusCode: kind.Status(), Kind: kind, Message: message}
}

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func BadRequest(message string) *AppError   { return New(KindBadRequest, message) }
func Unauthorized(message string) *AppError { return New(KindUnauthorized, message) }
func Forbidden(message string) *AppError    { return New(KindForbidden, message) }
func NotFound(message string) *AppError     { return New(KindNotFound, message) }
func Conflict(message string) *AppError     { return New(KindConflict, message) }
func Internal(message string) *AppError     { return New(KindInternal, message) }
func Unavailable(message string) *AppError  { return New(KindServiceUnavailable, message) }

// Issue is a single validation problem. An empty Path refers to the input as a whole.
type Issue struct {
	Path    []string
	Message string
}

// Key joins the path with dots; the empty path is filed under "root".
func (i Issue) Key() string {
	if k := strings.Join(i.Path, "."); k != "" {
		return k
	}
	return "root"
}

// ValidationError collects the issues found while validating one request input.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Key()+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields groups issue messages by field key, keeping issue order within each field.
func (e *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string)
	for _, is := range e.Issues {
		k := is.Key()
		out[k] = append(out[k], is.Message)
	}
	return out
}

// HTTPError is a transport-level failure that already knows its status and message.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func NewHTTPError(status int, message string, cause error) *HTTPError {
	return &HTTPError{Status: status, Message: message, Err: cause}
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("http %d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }
