package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound also covers records owned by someone else.
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrConfiguration   = errors.New("configuration error")
	ErrUnauthenticated = errors.New("unauthenticated")
)

type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func MissingFields(fields ...string) *ValidationError {
	return &ValidationError{
		Fields:  fields,
		Message: "missing required fields: " + strings.Join(fields, ", "),
	}
}

func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []string{field}, Message: message}
}

// UpstreamError is a failed call to the scoring model (transport, auth, non-2xx, timeout).
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s scoring call failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
