package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesFromCode(t *testing.T) {
	err := New(ErrCodeRateLimited, "too many requests", nil)

	assert.Equal(t, CategoryExternal, err.Category)
	assert.True(t, err.Retryable)
	assert.Contains(t, err.Error(), "ERR_302_RATE_LIMITED")
}

func TestNew_ConfigIsFatalNotRetryable(t *testing.T) {
	err := ConfigError("missing key", nil)

	assert.Equal(t, CategoryConfig, err.Category)
	assert.Equal(t, SeverityFatal, err.Severity)
	assert.False(t, err.Retryable)
	assert.True(t, IsFatal(err))
}

func TestWrap_NilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestUnwrap_PreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := New(ErrCodeSearchFailed, "search failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCodeQueryEmpty, "empty", nil))
	assert.ErrorIs(t, err, New(ErrCodeQueryEmpty, "other message", nil))
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, IsRateLimit(errors.New("googleapi: Error 429: quota exceeded")))
	assert.True(t, IsRateLimit(errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED")))
	assert.False(t, IsRateLimit(errors.New("connection refused")))
	assert.False(t, IsRateLimit(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeEmbeddingFailed, "transient", nil)))
	assert.True(t, IsRetryable(errors.New("HTTP 429")), "raw rate-limit errors are retryable")
	assert.False(t, IsRetryable(ConfigError("bad config", nil)))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestGetCode(t *testing.T) {
	require.Equal(t, ErrCodeGraphMissing, GetCode(New(ErrCodeGraphMissing, "no graph", nil)))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}
