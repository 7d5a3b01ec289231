package client

import (
	"errors"
	"fmt"
	"time"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	// It is permanent: callers must not retry again.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrInvalidConfig is returned by New for unusable configuration.
	ErrInvalidConfig = errors.New("invalid client configuration")
)

// ErrorClass represents a classification of transport failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (permanent).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors (transient).
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 and 503 throttling (transient).
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors (transient).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents an unreadable response body (permanent).
	ErrorClassDecode ErrorClass = "decode"
)

// APIError represents a failed SCJN request with additional context.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error

	// RetryAfter is the server-requested wait, if any.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("SCJN %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("SCJN %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is worth retrying.
func (e *APIError) Transient() bool {
	return shouldRetry(e.Class)
}

// IsTransient reports whether err is a failure the transport would retry.
// Errors that already exhausted their retries are not transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrRetryExhausted) {
		return false
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Transient()
}

// IsPermanent reports whether err is terminal for the caller.
func IsPermanent(err error) bool {
	return err != nil && !IsTransient(err)
}

// shouldRetry determines if an error class should be retried.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 4xx and undecodable bodies will not improve on retry
		return false
	}
}
