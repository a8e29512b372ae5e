// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Transport errors.
	ErrTransport = errors.New("transport failure")
	ErrTimeout   = errors.New("request timed out")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Fallback messages used when an error carries no readable text.
const (
	FallbackMessage        = "Something went wrong"
	UnexpectedErrorMessage = "Unexpected server error"
)

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

// MessageCarrier is implemented by errors that already hold a normalized,
// human-readable message.
type MessageCarrier interface {
	UserFacingMessage() string
}

// ErrorMessage extracts the message to show for err. Errors carrying a
// normalized message win, then the error's own text, then a fixed fallback.
// It never returns an empty string.
func ErrorMessage(err error) string {
	if err == nil {
		return FallbackMessage
	}

	var carrier MessageCarrier
	if errors.As(err, &carrier) {
		if msg := strings.TrimSpace(carrier.UserFacingMessage()); msg != "" {
			return msg
		}
	}

	var userErr *UserError
	if errors.As(err, &userErr) && userErr.UserMessage != "" {
		return userErr.UserMessage
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}

	return UnexpectedErrorMessage
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return true
}
