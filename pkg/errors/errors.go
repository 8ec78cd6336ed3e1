package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrInternal
	ErrInvalidTransition
	ErrClassification
	ErrStoreUnavailable
	ErrStatsComputation
)

func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// NewInvalidTransition marks a status change attempted against a Resolved or
// deactivated alert, or one that skips the lifecycle sequence. Never silently
// absorbed: callers surface it.
func NewInvalidTransition(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: message,
	}
}

// NewClassification marks a single record that could not be classified. The
// batch continues around it.
func NewClassification(message string, err error) *AppError {
	return &AppError{
		Code:    ErrClassification,
		Message: message,
		Err:     err,
	}
}

// NewStoreUnavailable wraps a persistence-layer failure for the caller of a
// mutating operation.
func NewStoreUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrStoreUnavailable,
		Message: "alert store unavailable",
		Err:     err,
	}
}

// IsInvalidTransition reports whether err is an InvalidTransition AppError
// anywhere in its chain.
func IsInvalidTransition(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrInvalidTransition
}

// IsNotFound reports whether err is a NotFound AppError anywhere in its chain.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrNotFound
}
