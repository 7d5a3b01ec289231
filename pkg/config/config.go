// Package config loads the configuration of the SCJN client and CLI.
//
// Values are resolved in this order, later sources winning: built-in
// defaults, the YAML file, SCJN_* environment variables. Command-line
// flags are applied by the CLI on top of the loaded value.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Sternrassler/scjn-client/pkg/cache"
	"github.com/Sternrassler/scjn-client/pkg/client"
	"github.com/Sternrassler/scjn-client/pkg/logging"
	"github.com/Sternrassler/scjn-client/pkg/pagination"
	"github.com/Sternrassler/scjn-client/pkg/ratelimit"
	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG config subdirectory.
const AppName = "scjn"

// DefaultConfigFile is the config file name inside the XDG directory.
const DefaultConfigFile = "config.yaml"

// ErrConfigNotFound is returned when an explicitly named file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Config is the complete client configuration. It is a plain value: copies
// never share state.
type Config struct {
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	HostName  string        `yaml:"host_name" validate:"required,url"`
	UserAgent string        `yaml:"user_agent" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`

	// PageSize is the number of results requested per page.
	PageSize int `yaml:"page_size" validate:"gt=0,lte=1000"`

	// MaxConcurrent bounds requests in flight during bulk operations.
	MaxConcurrent int `yaml:"max_concurrent" validate:"gt=0,lte=32"`

	// MinDelay is held after every request before its slot is reused.
	MinDelay time.Duration `yaml:"min_delay" validate:"gte=0"`

	// ReuseProbe keeps the count probe as page 0.
	ReuseProbe bool `yaml:"reuse_probe"`

	Retry client.RetryConfig `yaml:"retry"`

	// RedisURL enables document caching and shared cooldowns, e.g.
	// redis://localhost:6379/0. Empty disables both.
	RedisURL string        `yaml:"redis_url" validate:"omitempty,url"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	Log logging.Config `yaml:"log"`

	// MetricsAddr exposes /metrics when set, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:       client.DefaultBaseURL,
		HostName:      client.DefaultHostName,
		UserAgent:     client.DefaultUserAgent,
		Timeout:       30 * time.Second,
		PageSize:      pagination.DefaultPageSize,
		MaxConcurrent: ratelimit.DefaultMaxConcurrent,
		MinDelay:      ratelimit.DefaultMinDelay,
		Retry:         client.DefaultRetryConfig(),
		CacheTTL:      cache.DefaultTTL,
		Log:           logging.Config{Level: logging.LevelInfo},
	}
}

var validate = validator.New()

// Validate checks every field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/scjn/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, DefaultConfigFile)
}

// Load resolves the configuration. An explicit path must exist; the
// default path is optional.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if err := cfg.readFile(path); err != nil {
		if !errors.Is(err, ErrConfigNotFound) || explicit {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readFile decodes path over the current values.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv applies SCJN_* overrides.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	duration := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("SCJN_BASE_URL", &c.BaseURL)
	str("SCJN_USER_AGENT", &c.UserAgent)
	str("SCJN_REDIS_URL", &c.RedisURL)
	str("SCJN_METRICS_ADDR", &c.MetricsAddr)

	var level string
	str("SCJN_LOG_LEVEL", &level)
	if level != "" {
		c.Log.Level = logging.LogLevel(level)
	}

	return errors.Join(
		integer("SCJN_PAGE_SIZE", &c.PageSize),
		integer("SCJN_MAX_CONCURRENT", &c.MaxConcurrent),
		duration("SCJN_MIN_DELAY", &c.MinDelay),
		duration("SCJN_TIMEOUT", &c.Timeout),
	)
}

// ClientConfig builds the client configuration. rdb may be nil.
func (c Config) ClientConfig(rdb *redis.Client, logger *zerolog.Logger) client.Config {
	return client.Config{
		BaseURL:   c.BaseURL,
		HostName:  c.HostName,
		UserAgent: c.UserAgent,
		Timeout:   c.Timeout,
		Retry:     c.Retry,
		Gate: ratelimit.GateConfig{
			MaxConcurrent: c.MaxConcurrent,
			MinDelay:      c.MinDelay,
		},
		Redis:    rdb,
		CacheTTL: c.CacheTTL,
		Logger:   logger,
	}
}

// PaginationOptions returns the bulk extraction options; progress is left
// to the caller.
func (c Config) PaginationOptions() pagination.Options {
	return pagination.Options{
		PageSize:      c.PageSize,
		MaxConcurrent: c.MaxConcurrent,
		MinDelay:      pagination.Delay(c.MinDelay),
		ReuseProbe:    c.ReuseProbe,
	}
}

// OpenRedis connects to RedisURL. It returns nil without error when Redis
// is not configured.
func (c Config) OpenRedis(ctx context.Context) (*redis.Client, error) {
	if c.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}
