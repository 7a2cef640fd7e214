package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(3))

	for i := 0; i < 3; i++ {
		assert.True(t, cb.Allow())
		cb.RecordFailure()
	}

	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(3))

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1), WithResetTimeout(time.Millisecond))

	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.True(t, cb.Allow())
}

func TestExecute_OpenCircuitShortCircuits(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1))
	cb.RecordFailure()

	calls := 0
	err := cb.Execute(func() error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 0, calls)
}

func TestExecuteWithResult_FallbackWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1))
	cb.RecordFailure()

	got, err := ExecuteWithResult(cb, func() (string, error) {
		return "primary", nil
	}, func() (string, error) {
		return "fallback", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}

func TestExecuteWithResult_ClosedCallsPrimary(t *testing.T) {
	cb := NewCircuitBreaker("test")

	got, err := ExecuteWithResult(cb, func() (string, error) {
		return "primary", nil
	}, func() (string, error) {
		return "fallback", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "primary", got)
}

func TestExecuteWithResult_FailureCounts(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(2))
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := ExecuteWithResult(cb, func() (int, error) {
			return 0, boom
		}, func() (int, error) {
			return -1, nil
		})
		assert.Error(t, err)
	}

	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1), WithResetTimeout(time.Millisecond))
	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)

	err := cb.Execute(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}
