package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type carrierErr struct{ msg string }

func (e carrierErr) Error() string             { return "wrapped: " + e.msg }
func (e carrierErr) UserFacingMessage() string { return e.msg }

type blankErr struct{}

func (blankErr) Error() string { return "  " }

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want string
	}{
		{name: "nil error", err: nil, want: FallbackMessage},
		{name: "carrier wins", err: fmt.Errorf("outer: %w", carrierErr{msg: "Not found"}), want: "Not found"},
		{name: "empty carrier falls through", err: carrierErr{}, want: "wrapped:"},
		{name: "user error", err: NewUserError("Check your config", errors.New("boom")), want: "Check your config"},
		{name: "plain error", err: errors.New("network down"), want: "network down"},
		{name: "blank error text", err: blankErr{}, want: UnexpectedErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("503")))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("bad request"), Retryable: false}))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("flaky"), Retryable: true}))
}

func TestUserError(t *testing.T) {
	inner := errors.New("inner")
	err := NewUserError("Friendly", inner)
	assert.Equal(t, "Friendly: inner", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "Friendly", (&UserError{UserMessage: "Friendly"}).Error())
}
