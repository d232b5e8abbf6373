package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeRiskRejected, "position-count cap")
	assert.Equal(t, "[600] position-count cap", err.Error())

	wrapped := Wrap(ErrCodeBrokerTransient, "submit failed", stderrors.New("connection reset"))
	assert.Equal(t, "[500] submit failed: connection reset", wrapped.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrapf(ErrCodeStoreFailed, cause, "failed to insert %s", "trade")

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "failed to insert trade", err.Message)
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeDataGap, GetCode(New(ErrCodeDataGap, "no bar")))
	assert.Equal(t, ErrCodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeUnknown, GetCode(nil))
}

func TestHasCodeThroughChain(t *testing.T) {
	inner := New(ErrCodeBrokerTransient, "timeout")
	outer := Wrap(ErrCodeSubmissionFailure, "order submission failed", inner)

	// GetCode sees the outermost structured error.
	assert.True(t, HasCode(outer, ErrCodeSubmissionFailure))
	assert.True(t, IsTransient(inner))
	assert.False(t, IsTransient(outer))
}

func TestInsufficientHistoryError(t *testing.T) {
	err := NewInsufficientHistoryError(20, 5, "005930", "not enough bars")

	require.True(t, IsInsufficientHistoryError(err))
	assert.Equal(t, 20, err.Required)
	assert.Equal(t, 5, err.Actual)
	assert.Equal(t, "not enough bars", err.Error())

	assert.False(t, IsInsufficientHistoryError(New(ErrCodeDataGap, "gap")))
	assert.False(t, IsInsufficientHistoryError(nil))
}
