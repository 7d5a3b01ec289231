package client

import (
	"errors"
	"fmt"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{name: "client error should not retry", errorClass: ErrorClassClient, expected: false},
		{name: "server error should retry", errorClass: ErrorClassServer, expected: true},
		{name: "rate limit should retry", errorClass: ErrorClassRateLimit, expected: true},
		{name: "network error should retry", errorClass: ErrorClassNetwork, expected: true},
		{name: "decode error should not retry", errorClass: ErrorClassDecode, expected: false},
		{name: "empty error class should not retry", errorClass: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.errorClass); got != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, got, tt.expected)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		expected string
	}{
		{
			name: "error with wrapped error",
			apiError: &APIError{
				StatusCode: 500,
				Class:      ErrorClassServer,
				Message:    "internal server error",
				Err:        errors.New("connection reset"),
			},
			expected: "SCJN server error (status 500): internal server error: connection reset",
		},
		{
			name: "error without wrapped error",
			apiError: &APIError{
				StatusCode: 404,
				Class:      ErrorClassClient,
				Message:    "not found",
			},
			expected: "SCJN client error (status 404): not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.apiError.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("dial tcp: timeout")
	err := &APIError{Class: ErrorClassNetwork, Message: "request failed", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	var apiErr *APIError
	wrapped := fmt.Errorf("fetch page 3: %w", err)
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As should find APIError through wrapping")
	}
	if apiErr.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want %q", apiErr.Class, ErrorClassNetwork)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{name: "nil", err: nil, transient: false},
		{name: "plain error", err: errors.New("boom"), transient: false},
		{name: "server", err: &APIError{StatusCode: 502, Class: ErrorClassServer}, transient: true},
		{name: "rate limit", err: &APIError{StatusCode: 429, Class: ErrorClassRateLimit}, transient: true},
		{name: "network", err: &APIError{Class: ErrorClassNetwork}, transient: true},
		{name: "client", err: &APIError{StatusCode: 400, Class: ErrorClassClient}, transient: false},
		{name: "decode", err: &APIError{StatusCode: 200, Class: ErrorClassDecode}, transient: false},
		{
			name:      "exhausted retries are permanent",
			err:       fmt.Errorf("%w after 4 attempts: %w", ErrRetryExhausted, &APIError{StatusCode: 503, Class: ErrorClassRateLimit}),
			transient: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.transient)
			}
			if tt.err != nil && IsPermanent(tt.err) == tt.transient {
				t.Errorf("IsPermanent() = %v, want %v", IsPermanent(tt.err), !tt.transient)
			}
		})
	}

	if IsPermanent(nil) {
		t.Error("IsPermanent(nil) should be false")
	}
}
