package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
)

// TransportError is the single normalized failure shape returned by the
// client. StatusCode is zero when no response was received.
type TransportError struct {
	Err        error
	Message    string
	Body       string
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transactions API error (status %d): %s", e.StatusCode, e.UserFacingMessage())
	}
	return fmt.Sprintf("transactions API error: %s", e.UserFacingMessage())
}

// Unwrap exposes the underlying cause and marks every transport failure
// with common.ErrTransport.
func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{common.ErrTransport}
	}
	return []error{common.ErrTransport, e.Err}
}

// UserFacingMessage returns the normalized message, falling back to the
// generic text when none was extracted.
func (e *TransportError) UserFacingMessage() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return common.FallbackMessage
}

// Timeout reports whether the request exceeded its deadline.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, common.ErrTimeout)
}
