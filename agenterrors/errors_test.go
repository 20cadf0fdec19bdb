package agenterrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodedErrorRetryable(t *testing.T) {
	recoverable := NewCodedError(KindRecoverableInfra, "RATE_LIMITED", "too many requests", nil)
	assert.True(t, recoverable.Retryable())

	input := NewCodedError(KindInput, "BAD_GOAL", "goal missing", nil)
	assert.False(t, input.Retryable())
}

func TestIsCodedErrorAndGetCode(t *testing.T) {
	wrapped := WithContext(NewCodedError(KindExecution, "STEP_FAILED", "boom", nil), "step s1", nil)

	assert.True(t, IsCodedError(wrapped))
	assert.Equal(t, "STEP_FAILED", GetErrorCode(wrapped))
}

func TestWithContextNilIsNil(t *testing.T) {
	assert.Nil(t, WithContext(nil, "op", nil))
}

func TestSafeCallRecoversPanic(t *testing.T) {
	err := SafeCall(func() error {
		panic("boom")
	})

	require.Error(t, err)
	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "boom", panicErr.Value)
	assert.NotEmpty(t, panicErr.StackTrace)
}

func TestSafeCallPassesThroughError(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := SafeCall(func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}
