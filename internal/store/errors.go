package store

import (
	"errors"
	"fmt"
)

// Code is a machine-readable failure category.
type Code string

// Failure categories surfaced to callers. Infrastructure failures (broken
// connections, malformed statements) are never translated into one of these;
// they propagate as the driver returned them.
const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeReplicaMismatch Code = "REPLICA_MISMATCH"
	CodeDeserialize     Code = "DESERIALIZE"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
)

// Error is a typed store error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target matches this error.
// Two *Errors match when they carry the same Code, so sentinel comparisons
// via errors.Is survive WithMessage/WithCause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err}
}

// WithCause returns a copy wrapping an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	// ErrNotFound is returned when a mutation target cannot be reached.
	ErrNotFound = &Error{
		Code:    CodeNotFound,
		Message: "resource not found",
	}

	// ErrReplicaMismatch is returned when a requested replica ordering is
	// not exactly the medium's current replica id set.
	ErrReplicaMismatch = &Error{
		Code:    CodeReplicaMismatch,
		Message: "replica order does not match the medium's replicas",
	}

	// ErrDeserialize is returned when a stored external-metadata payload
	// does not match its service's expected shape.
	ErrDeserialize = &Error{
		Code:    CodeDeserialize,
		Message: "stored payload does not match expected shape",
	}

	// ErrInvalidInput is returned for malformed operation parameters.
	ErrInvalidInput = &Error{
		Code:    CodeInvalidInput,
		Message: "invalid input",
	}

	// ErrAlreadyExists is returned on unique-constraint conflicts for
	// entity creation.
	ErrAlreadyExists = &Error{
		Code:    CodeAlreadyExists,
		Message: "resource already exists",
	}
)
