package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a remote path or entry does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating over an existing entry.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when the remote file changed underneath us.
	// It is surfaced to the caller, never retried with a fresh token: a
	// blind retry would overwrite another actor's concurrent edit.
	ErrConflict = errors.New("conflict: remote file was modified")
)

// ValidationError carries a client-facing message for bad input. It maps to
// a 4xx response and is always produced before any remote mutation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
