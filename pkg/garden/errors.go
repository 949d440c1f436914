package garden

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy shared by the server, the API client and the repositories.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrAuthRequired = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
	ErrUpload       = errors.New("upload rejected")
	ErrTooLarge     = fmt.Errorf("%w: file too large", ErrUpload)
	ErrTransientIO  = errors.New("storage failure")
)

// FieldError reports a missing or malformed input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// NewFieldError builds a validation error for a single field.
func NewFieldError(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StatusOf maps an error from the taxonomy to its HTTP status code.
// Anything unknown is treated as a transient server failure.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUpload):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// SentinelFor is the inverse of StatusOf, used by clients to classify
// server responses.
func SentinelFor(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusRequestEntityTooLarge:
		return ErrTooLarge
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrAuthRequired
	case http.StatusForbidden:
		return ErrForbidden
	default:
		if status >= 500 {
			return ErrTransientIO
		}
		return nil
	}
}
