// Package errors provides typed application errors so callers can
// distinguish recoverable integration failures from caller mistakes.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error.
type ErrorType uint

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidArgument
	ErrorTypeNotFound
	ErrorTypeAlreadyExists
	ErrorTypeNetwork
	ErrorTypeTimeout
)

// AppError is an error with a type and an optional wrapped cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets typed sentinels compare by type, so
// errors.Is(err, ErrNotFound) works across wrapping.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return e.Type == appErr.Type
	}
	return false
}

// Typed sentinels for use with errors.Is.
var (
	ErrNotFound        = &AppError{Type: ErrorTypeNotFound, Message: "not found"}
	ErrAlreadyExists   = &AppError{Type: ErrorTypeAlreadyExists, Message: "already exists"}
	ErrInvalidArgument = &AppError{Type: ErrorTypeInvalidArgument, Message: "invalid argument"}
	ErrTimeout         = &AppError{Type: ErrorTypeTimeout, Message: "timed out"}
)

// Wrap wraps an error with a message, preserving the original type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	errType := ErrorTypeUnknown
	var appErr *AppError
	if errors.As(err, &appErr) {
		errType = appErr.Type
	}
	return &AppError{Type: errType, Message: message, Err: err}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// InvalidArgument creates a new InvalidArgument error.
func InvalidArgument(message string) error {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: message}
}

// NotFound creates a new NotFound error.
func NotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// AlreadyExists creates a new AlreadyExists error.
func AlreadyExists(message string) error {
	return &AppError{Type: ErrorTypeAlreadyExists, Message: message}
}

// Network creates a new Network error.
func Network(message string) error {
	return &AppError{Type: ErrorTypeNetwork, Message: message}
}

// Timeout creates a new Timeout error.
func Timeout(message string) error {
	return &AppError{Type: ErrorTypeTimeout, Message: message}
}
