package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	fast := RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
	boom := errors.New("boom")

	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantErr   error
	}{
		{name: "first try", failures: 0, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, failWith: boom, wantCalls: 3},
		{name: "gives up", failures: 5, failWith: boom, wantCalls: 3, wantErr: ErrMaxRetries},
		{
			name:      "permanent error",
			failures:  5,
			failWith:  &RetryableError{Err: boom, Retryable: false},
			wantCalls: 1,
			wantErr:   boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), Discard(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			}, fast)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, nil, func() error {
		calls++
		cancel()
		return errors.New("boom")
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Second})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryOptions_Defaults(t *testing.T) {
	got := RetryOptions{}.withDefaults()
	assert.Equal(t, RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}, got)

	custom := RetryOptions{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: time.Minute, Multiplier: 1.5}
	assert.Equal(t, custom, custom.withDefaults())
}

func TestWithRetry_RateLimitWaitsMaxDelay(t *testing.T) {
	opts := RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 30 * time.Millisecond}
	calls := 0
	start := time.Now()
	err := WithRetry(context.Background(), Discard(), func() error {
		calls++
		if calls == 1 {
			return ErrRateLimit
		}
		return nil
	}, opts)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
