package pagination

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned before any fetch when Options are unusable.
	ErrInvalidConfig = errors.New("invalid pagination config")

	// ErrInvalidTotal is returned when the backend reports a negative total.
	ErrInvalidTotal = errors.New("invalid total count")
)

// ConfigError describes which option was rejected.
type ConfigError struct {
	Field string
	Value any
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: invalid %s (got %v)", ErrInvalidConfig, e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// PageError reports the page whose fetch failed a run.
type PageError struct {
	Page int
	Err  error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PageError) Unwrap() error {
	return e.Err
}
