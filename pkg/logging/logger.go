// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool `yaml:"pretty"`

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer `yaml:"-" validate:"-"`
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

var validate = validator.New()

// Validate rejects unknown levels.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	return nil
}

// Setup configures the global zerolog logger. Stdout is reserved for
// command output, so a nil Output falls back to stderr.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel maps a configured level onto zerolog. "warning" is accepted
// as an alias and unknown values fall back to info.
func parseLevel(level LogLevel) zerolog.Level {
	name := strings.ToLower(string(level))
	if name == "warning" {
		name = string(LevelWarn)
	}
	parsed, err := zerolog.ParseLevel(name)
	if err != nil || name == "" || parsed < zerolog.DebugLevel || parsed > zerolog.ErrorLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit, revalidation, key)
//   - Individual page requests and retry backoff
//   - Gate reconfiguration
//
// Info: Normal operation events
//   - Start and end of a bulk extraction (total, pages, duration)
//   - Requests succeeding after retry
//
// Warn: Warning conditions that don't prevent operation
//   - Failed page fetches and HTTP error responses
//   - Cooldowns recorded after 429/503
//   - Cache or Redis errors (request proceeds uncached)
//
// Error: Error conditions requiring attention
//   - Failed extraction runs surfaced by the CLI
//   - Configuration errors
//
// Context Fields:
//   - route: logical SCJN endpoint (search, tesis, health)
//   - status: HTTP status code
//   - error_class: client, server, rate_limit, network, decode
//   - page, total_pages, total_count: pagination position
//   - max_concurrent: active gate limit
//   - cooldown: wait imposed by the backend
