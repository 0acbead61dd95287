package core

import "github.com/pkg/errors"

// ErrPermissionDenied is returned when the caller's workforce groups do not grant
// access to the target content, or the target belongs to another organization.
var ErrPermissionDenied = errors.New("permission denied")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// IntegrityError signals a storage-level constraint violation that indicates an
// invariant breach. It is never swallowed; callers log it and fail the request.
type IntegrityError struct {
	Msg string
	Err error
}

func NewIntegrityError(msg string, err error) error {
	return &IntegrityError{Msg: msg, Err: err}
}

func (e IntegrityError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e IntegrityError) Unwrap() error { return e.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
