package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeDuplicateBinding = "duplicate_binding"
	ErrCodeAlreadyBound     = "already_bound"
	ErrCodeNotBound         = "not_bound"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeMessageTooLong   = "message_too_long"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeInternal         = "internal"
)

var (
	ErrDuplicateBinding = errors.New("username already bound to a live connection")
	ErrAlreadyBound     = errors.New("connection already bound")
	ErrConnClosed       = errors.New("connection closed")
	ErrInvalidUsername  = errors.New("invalid username")
	ErrNotBound         = errors.New("connection not bound")
	ErrBadRequest       = errors.New("bad request")
	ErrMessageTooLong   = errors.New("message too long")
)

// PersistenceError reports a message log failure. Delivery is attempted
// regardless, so it is informational for the sender.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("message log %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// toCoreError maps a domain error onto its wire code.
func toCoreError(err error) *CoreError {
	switch {
	case errors.Is(err, ErrDuplicateBinding):
		return coreError(ErrCodeDuplicateBinding, "user with this name already logged in")
	case errors.Is(err, ErrAlreadyBound):
		return coreError(ErrCodeAlreadyBound, "connection already identified")
	case errors.Is(err, ErrNotBound):
		return coreError(ErrCodeNotBound, "hello required before this command")
	case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrBadRequest):
		return coreError(ErrCodeBadRequest, err.Error())
	case errors.Is(err, ErrMessageTooLong):
		return coreError(ErrCodeMessageTooLong, err.Error())
	default:
		return coreError(ErrCodeInternal, "internal error")
	}
}
