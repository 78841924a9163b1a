package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeConnectionFailed, "connection refused")

	assert.Equal(t, ErrCodeConnectionFailed, err.Code)
	assert.Equal(t, "connection refused", err.Message)
	assert.Equal(t, SeverityError, err.Severity)
	assert.False(t, err.Recoverable)
	assert.NotEmpty(t, err.Stack)
}

func TestWrap(t *testing.T) {
	t.Run("wraps plain error", func(t *testing.T) {
		cause := fmt.Errorf("dial tcp: refused")
		err := Wrap(cause, ErrCodeConnectionFailed, "warehouse unreachable")

		require.NotNil(t, err)
		assert.Equal(t, cause, err.Unwrap())
		assert.Contains(t, err.Error(), "warehouse unreachable")
		assert.Contains(t, err.Error(), "dial tcp: refused")
	})

	t.Run("nil cause returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrCodeInternal, "nothing"))
	})

	t.Run("inherits context from wrapped AppError", func(t *testing.T) {
		inner := New(ErrCodeRowInsert, "insert failed").WithContext("table", "FactOrders")
		outer := Wrap(inner, ErrCodeInternal, "load aborted")

		assert.Equal(t, "FactOrders", outer.Context["table"])
	})
}

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeTableMissing, "workbook not found").
		WithSuggestions("Check the secondary source directory")

	msg := err.Error()
	assert.Contains(t, msg, string(ErrCodeTableMissing))
	assert.Contains(t, msg, "Suggestions:")
	assert.Contains(t, msg, "Check the secondary source directory")
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(New(ErrCodeTimeout, "slow").AsRecoverable()))
	assert.False(t, IsRecoverable(New(ErrCodeTimeout, "slow")))
	assert.False(t, IsRecoverable(fmt.Errorf("plain")))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeRowInsert, GetErrorCode(New(ErrCodeRowInsert, "x")))
	assert.Equal(t, ErrCodeInternal, GetErrorCode(fmt.Errorf("plain")))
}

func TestRetry(t *testing.T) {
	cfg := &RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		RetryableError: func(err error) bool {
			return GetErrorCode(err) == ErrCodeConnectionTimeout
		},
	}

	t.Run("succeeds after transient failure", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), cfg, func(ctx context.Context) error {
			attempts++
			if attempts < 2 {
				return New(ErrCodeConnectionTimeout, "transient")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("does not retry non-retryable errors", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), cfg, func(ctx context.Context) error {
			attempts++
			return New(ErrCodeValidationFailed, "bad input")
		})

		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("exhausts retries", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), cfg, func(ctx context.Context) error {
			attempts++
			return New(ErrCodeConnectionTimeout, "still down")
		})

		assert.Error(t, err)
		assert.Equal(t, 3, attempts)
		assert.Equal(t, ErrCodeResourceExhausted, GetErrorCode(err))
	})
}
