package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/rpcops/rpc"
)

var errRefused = &rpc.TransientError{Kind: rpc.KindConnection, Err: errors.New("connection refused")}

func TestNewRetry_Defaults(t *testing.T) {
	r := NewRetry(RetryConfig{})

	assert.Equal(t, 5, r.Config().MaxAttempts)
	assert.Zero(t, r.Config().InitialDelay)
	assert.Equal(t, 30*time.Second, r.Config().MaxDelay)
	assert.Equal(t, 2.0, r.Config().Multiplier)
	assert.True(t, r.Config().RetryIf(errRefused))
	assert.False(t, r.Config().RetryIf(errors.New("invalid json")))
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	r := NewRetry(RetryConfig{})

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 5 {
			return errRefused
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 5, attempts)
}

func TestRetry_ExhaustedReturnsLastError(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3})

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return errRefused
	})

	assert.Same(t, errRefused, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	r := NewRetry(RetryConfig{})
	fatal := errors.New("bad request")

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return fatal
	})

	assert.Same(t, fatal, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ContextCancellation(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 10, InitialDelay: 100 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func(context.Context) error { return errRefused })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry_OnRetry(t *testing.T) {
	var seen []int
	r := NewRetry(RetryConfig{
		MaxAttempts: 3,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			seen = append(seen, attempt)
			assert.Zero(t, delay)
		},
	})

	_ = r.Do(context.Background(), func(context.Context) error { return errRefused })
	assert.Equal(t, []int{1, 2}, seen)
}

func TestRetry_CalculateDelay(t *testing.T) {
	tests := []struct {
		name     string
		config   RetryConfig
		attempt  int
		expected time.Duration
	}{
		{"immediate", RetryConfig{}, 3, 0},
		{"constant", RetryConfig{InitialDelay: 50 * time.Millisecond, Strategy: BackoffConstant}, 3, 50 * time.Millisecond},
		{"linear", RetryConfig{InitialDelay: 50 * time.Millisecond, Strategy: BackoffLinear}, 3, 150 * time.Millisecond},
		{"exponential", RetryConfig{InitialDelay: 50 * time.Millisecond}, 3, 200 * time.Millisecond},
		{"capped", RetryConfig{InitialDelay: time.Second, MaxDelay: 2 * time.Second}, 5, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetry(tt.config)
			assert.Equal(t, tt.expected, r.calculateDelay(tt.attempt))
		})
	}
}

func TestRetry_JitterBounded(t *testing.T) {
	r := NewRetry(RetryConfig{InitialDelay: 100 * time.Millisecond, Strategy: BackoffConstant, Jitter: true})
	for i := 0; i < 50; i++ {
		d := r.calculateDelay(1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 125*time.Millisecond)
	}
}
