package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps backoff short enough for unit tests.
func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    5 * time.Millisecond,
		MaxBackoff:        20 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// countingCall returns fn failing with errs in order and then succeeding,
// plus a pointer to the number of invocations.
func countingCall(errs ...error) (func() error, *int) {
	calls := 0
	return func() error {
		calls++
		if calls <= len(errs) {
			return errs[calls-1]
		}
		return nil
	}, &calls
}

func serverErr(status int) *APIError {
	return &APIError{StatusCode: status, Class: ErrorClassServer, Message: http.StatusText(status)}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Equal(t, 4, cfg.MaxAttempts, "initial request plus three retries")
	assert.Equal(t, time.Second, cfg.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.MaxBackoff)
	assert.InDelta(t, 2.0, cfg.BackoffMultiplier, 0)
}

func TestRetryWithBackoff_FirstAttempt(t *testing.T) {
	fn, calls := countingCall()

	require.NoError(t, retryWithBackoff(context.Background(), fastRetry(), zerolog.Nop(), fn))
	assert.Equal(t, 1, *calls)
}

func TestRetryWithBackoff_RecoversFromGatewayErrors(t *testing.T) {
	fn, calls := countingCall(serverErr(http.StatusBadGateway), serverErr(http.StatusGatewayTimeout))

	start := time.Now()
	err := retryWithBackoff(context.Background(), fastRetry(), zerolog.Nop(), fn)

	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
	// 5ms then 10ms, each at least 80% after jitter
	assert.GreaterOrEqual(t, time.Since(start), 12*time.Millisecond)
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	last := serverErr(http.StatusInternalServerError)
	fn, calls := countingCall(last, last, last, last)

	err := retryWithBackoff(context.Background(), fastRetry(), zerolog.Nop(), fn)

	assert.ErrorIs(t, err, ErrRetryExhausted)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Same(t, last, apiErr, "last failure is wrapped")
	assert.True(t, IsPermanent(err), "exhaustion is final")
	assert.Equal(t, 3, *calls)
}

func TestRetryWithBackoff_BackoffCapped(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:       4,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 10,
	}
	e := serverErr(http.StatusServiceUnavailable)
	fn, _ := countingCall(e, e, e)

	start := time.Now()
	require.NoError(t, retryWithBackoff(context.Background(), cfg, zerolog.Nop(), fn))
	// three waits of at most 12ms each instead of 10ms, 100ms, 1s
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestRetryWithBackoff_PermanentNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "bad request", err: &APIError{StatusCode: http.StatusBadRequest, Class: ErrorClassClient}},
		{name: "not found", err: &APIError{StatusCode: http.StatusNotFound, Class: ErrorClassClient}},
		{name: "undecodable body", err: &APIError{StatusCode: http.StatusOK, Class: ErrorClassDecode}},
		{name: "request construction", err: errors.New("create request")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, calls := countingCall(tt.err)

			err := retryWithBackoff(context.Background(), fastRetry(), zerolog.Nop(), fn)

			assert.Equal(t, 1, *calls)
			assert.NotErrorIs(t, err, ErrRetryExhausted)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRetryWithBackoff_HonoursRetryAfter(t *testing.T) {
	throttled := &APIError{StatusCode: http.StatusTooManyRequests, Class: ErrorClassRateLimit, RetryAfter: 60 * time.Millisecond}
	fn, calls := countingCall(throttled)

	start := time.Now()
	require.NoError(t, retryWithBackoff(context.Background(), fastRetry(), zerolog.Nop(), fn))

	assert.Equal(t, 2, *calls)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond, "Retry-After outweighs the 5ms backoff")
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry()
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second

	calls := 0
	err := retryWithBackoff(ctx, cfg, zerolog.Nop(), func() error {
		calls++
		cancel()
		return &APIError{StatusCode: http.StatusServiceUnavailable, Class: ErrorClassRateLimit}
	})

	assert.ErrorIs(t, err, ErrContextCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
