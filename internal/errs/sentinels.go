// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"strings"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates the row changed between read and conditional write.
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnauthorized indicates a missing or invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")

	// ErrRemoteUnavailable indicates the remote tier could not serve a call
	// (network, configuration or backend failure). Always recovered locally.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrInvalidTransition indicates a moderation status change the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPermissionDenied indicates the actor lacks the role or capability for an operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation indicates missing or malformed input fields.
	ErrValidation = errors.New("validation failed")
)

// ValidationError lists the offending fields. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []string
}

// NewValidation builds a ValidationError for the given fields.
func NewValidation(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return "validation: missing or invalid " + strings.Join(e.Fields, ", ")
}

// Unwrap lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Unwrap() error { return ErrValidation }
