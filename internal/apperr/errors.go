// Package apperr holds sentinel errors shared by the service layers and
// mapped to HTTP status codes by the API.
package apperr

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnavailable   = errors.New("service unavailable")
)

// ValidationError carries per-field messages and matches ErrInvalidInput.
type ValidationError struct {
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ErrInvalidInput.Error()
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Err}
}

// Validation wraps an ozzo-validation result. Nil stays nil.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	ve := &ValidationError{Err: err, Fields: map[string]string{}}
	var errs validation.Errors
	if errors.As(err, &errs) {
		for field, fe := range errs {
			if fe != nil {
				ve.Fields[field] = fe.Error()
			}
		}
	}
	return ve
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return &ValidationError{
		Fields: map[string]string{field: msg},
		Err:    fmt.Errorf("%s: %s", field, msg),
	}
}
