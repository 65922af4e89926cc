// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Camera errors.
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	ErrCaptureNotReady   = errors.New("capture not ready")

	// Remote service errors.
	ErrConnection        = errors.New("connection failed")
	ErrMalformedResponse = errors.New("malformed response")

	// Input errors.
	ErrValidation = errors.New("validation failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ServerError is a non-success HTTP response from one of the backends.
type ServerError struct {
	Body   string
	Status int
}

func (e *ServerError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server error (status %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("server error (status %d)", e.Status)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage extracts the user-facing text from an error, falling back to
// the plain error string.
func UserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrConnection) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// 5xx responses are worth another attempt; 4xx are not.
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Status >= 500
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
