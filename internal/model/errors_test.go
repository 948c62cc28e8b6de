package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewError(CodeNetwork, "gemini unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "NETWORK_ERROR")
	assert.Contains(t, err.Error(), "connection refused")

	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, CodeNetwork, te.Code)
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := NewError(CodeNotFound, "user missing", nil)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(NewValidationError("bad input")))
	assert.Equal(t, CodeRateLimited, CodeOf(NewRateLimitError("slow down", 5, nil)))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain error")))

	wrapped := fmt.Errorf("outer: %w", NewError(CodeAIService, "bad payload", nil))
	assert.Equal(t, CodeAIService, CodeOf(wrapped))
}

func TestNewRateLimitErrorClampsNegativeHint(t *testing.T) {
	err := NewRateLimitError("slow down", -3, nil)
	assert.Equal(t, 0, err.RetryAfterSeconds)
}
