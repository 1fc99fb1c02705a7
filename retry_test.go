package ygggo_mysql_pool

import (
	"context"
	"errors"
	"testing"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  2 * time.Millisecond,
	}
}

func TestRetry_TransientErrorRetried(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(3), func() error {
		calls++
		if calls < 3 {
			return &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		return dup
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, dup)
	assert.Equal(t, 1, calls)
}

func TestRetry_AttemptBudgetExhausted(t *testing.T) {
	calls := 0
	gone := &mysql.MySQLError{Number: 1205}
	err := Retry(context.Background(), fastPolicy(3), func() error {
		calls++
		return gone
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, gone)
	assert.Equal(t, 3, calls)
}

func TestRetry_SuccessFirstTry(t *testing.T) {
	calls := 0
	require.NoError(t, Retry(context.Background(), fastPolicy(3), func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCanceledStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, RetryPolicy{MaxAttempts: 10, BaseBackoff: 50 * time.Millisecond}, func() error {
		calls++
		cancel()
		return &mysql.MySQLError{Number: 1213}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{}, func() error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
