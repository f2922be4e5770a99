package apperror

import (
	"errors"
	"net/http"
	"reflect"
)

const (
	validationMessage = "Validation failed"
	unexpectedMessage = "An unexpected error occurred"
)

// Body is the JSON error envelope returned to clients.
type Body struct {
	Error      Kind   `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Details    any    `json:"details,omitempty"`
}

// Format classifies err and returns the envelope together with the status to send.
// Classification order: validation, application, transport, unknown.
func Format(err error) (Body, int) {
	var (
		verr *ValidationError
		aerr *AppError
		herr *HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return newBody(KindValidation, validationMessage, http.StatusBadRequest, verr.Fields())
	case errors.As(err, &aerr):
		return newBody(aerr.Kind, aerr.Message, aerr.StatusCode, aerr.Details)
	case errors.As(err, &herr):
		return newBody(KindBadRequest, herr.Message, herr.Status, nil)
	default:
		return newBody(KindInternal, unexpectedMessage, http.StatusInternalServerError, nil)
	}
}

func newBody(kind Kind, message string, status int, details any) (Body, int) {
	b := Body{Error: kind, Message: message, StatusCode: status}
	if !isNil(details) {
		b.Details = details
	}
	return b, status
}

// isNil reports whether v is nil or a typed nil (map, slice, pointer, interface).
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
