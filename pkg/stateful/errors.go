package stateful

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError is returned when no record has the requested id.
type NotFoundError struct {
	// Kind is the singular record name, e.g. "note".
	Kind string
	// ID is the id as it was requested, which may not be numeric.
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s id %s does not exist", e.Kind, e.ID)
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// ValidationError is returned when a payload is missing a required field or
// has the wrong shape.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// DuplicateError is returned when a write would break a uniqueness rule.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s must be unique", e.Field)
}

// StatusCode returns the HTTP status code for this error.
func (e *DuplicateError) StatusCode() int {
	return http.StatusBadRequest
}

// CapacityError is returned when the id generator could not find a free id.
type CapacityError struct {
	Kind string
	Err  error
}

func (e *CapacityError) Error() string {
	return "capacity exceeded"
}

// Unwrap returns the generator error.
func (e *CapacityError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for this error.
func (e *CapacityError) StatusCode() int {
	return http.StatusConflict
}

// StatusCodeError is an interface for errors that have an HTTP status code.
type StatusCodeError interface {
	error
	StatusCode() int
}

// StatusOf returns the HTTP status code carried by err, or 500 when err has none.
func StatusOf(err error) int {
	var sc StatusCodeError
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// ToErrorResponse converts an error to the JSON error body.
func ToErrorResponse(err error) *ErrorResponse {
	var sc StatusCodeError
	if errors.As(err, &sc) {
		return &ErrorResponse{Error: sc.Error()}
	}
	return &ErrorResponse{Error: "internal error"}
}
