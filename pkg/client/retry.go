package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scjn_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scjn_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scjn_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int `yaml:"max_attempts" validate:"gte=1,lte=10"`

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration `yaml:"initial_backoff" validate:"gte=0"`

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration `yaml:"max_backoff" validate:"gtefield=InitialBackoff"`

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64 `yaml:"backoff_multiplier" validate:"gte=1"`
}

// DefaultRetryConfig returns the default retry configuration: the initial
// request plus three retries starting at one second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       4,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// retryWithBackoff executes fn until it succeeds, fails permanently, or
// the attempts are used up. It adds ±20% jitter and honours Retry-After.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func() error) error {
	var lastErr error
	var class ErrorClass
	backoff := cfg.InitialBackoff

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("error_class", string(class)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Transient() {
			return err
		}
		class = apiErr.Class

		if attempt >= cfg.MaxAttempts {
			break
		}

		retriesTotal.WithLabelValues(string(class)).Inc()

		wait := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		if apiErr.RetryAfter > wait {
			wait = apiErr.RetryAfter
		}
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())

		logger.Debug().
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("error_class", string(class)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	retryExhaustedTotal.WithLabelValues(string(class)).Inc()
	logger.Warn().
		Str("error_class", string(class)).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, cfg.MaxAttempts, lastErr)
}
