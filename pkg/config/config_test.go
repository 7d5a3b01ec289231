package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/scjn-client/pkg/client"
	"github.com/Sternrassler/scjn-client/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, 3, cfg.MaxConcurrent)
	assert.Equal(t, 100*time.Millisecond, cfg.MinDelay)
	assert.Empty(t, cfg.RedisURL)
}

func TestDefaultPath(t *testing.T) {
	path := DefaultPath()
	assert.True(t, strings.HasSuffix(path, filepath.Join("scjn", "config.yaml")), path)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
base_url: https://example.test/api
page_size: 50
max_concurrent: 2
min_delay: 250ms
timeout: 10s
reuse_probe: true
retry:
  max_attempts: 2
  initial_backoff: 100ms
  max_backoff: 1s
  backoff_multiplier: 1.5
redis_url: redis://localhost:6379/1
log:
  level: debug
  pretty: true
`)

	cfg, err := load(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/api", cfg.BaseURL)
	assert.Equal(t, client.DefaultHostName, cfg.HostName, "unset keys keep defaults")
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.Equal(t, 250*time.Millisecond, cfg.MinDelay)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.ReuseProbe)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1.5, cfg.Retry.BackoffMultiplier)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
	assert.Equal(t, logging.LevelDebug, cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "absent.yaml"), env(nil))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_DefaultPathOptional(t *testing.T) {
	if _, err := os.Stat(DefaultPath()); err == nil {
		t.Skip("a user config exists at the default path")
	}

	cfg, err := load("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "page_size: [1, 2")
	_, err := load(path, env(nil))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero page size", "page_size: 0"},
		{"too many workers", "max_concurrent: 100"},
		{"negative delay", "min_delay: -1s"},
		{"bad base url", "base_url: nope"},
		{"bad log level", "log:\n  level: loud"},
		{"bad metrics addr", "metrics_addr: nine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeConfig(t, tt.content), env(nil))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "page_size: 50\nmax_concurrent: 2\n")

	cfg, err := load(path, env(map[string]string{
		"SCJN_PAGE_SIZE":      "20",
		"SCJN_MAX_CONCURRENT": "5",
		"SCJN_MIN_DELAY":      "0s",
		"SCJN_REDIS_URL":      "redis://cache:6379/0",
		"SCJN_LOG_LEVEL":      "warn",
		"SCJN_METRICS_ADDR":   ":9090",
		"SCJN_USER_AGENT":     "",
	}))
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 5, cfg.MaxConcurrent)
	assert.Zero(t, cfg.MinDelay)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, logging.LevelWarn, cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, client.DefaultUserAgent, cfg.UserAgent, "empty variables are ignored")
}

func TestLoad_InvalidEnv(t *testing.T) {
	path := writeConfig(t, "")
	_, err := load(path, env(map[string]string{
		"SCJN_PAGE_SIZE": "many",
		"SCJN_TIMEOUT":   "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCJN_PAGE_SIZE")
	assert.Contains(t, err.Error(), "SCJN_TIMEOUT")
}

func TestClientConfig(t *testing.T) {
	cfg := Default()
	cfg.MaxConcurrent = 2
	cfg.MinDelay = 0

	nop := zerolog.Nop()
	cc := cfg.ClientConfig(nil, &nop)
	assert.Equal(t, 2, cc.Gate.MaxConcurrent)
	assert.Zero(t, cc.Gate.MinDelay)
	assert.Nil(t, cc.Redis)

	c, err := client.New(cc)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Gate().Config().MaxConcurrent)
}

func TestPaginationOptions(t *testing.T) {
	cfg := Default()
	cfg.ReuseProbe = true

	opts := cfg.PaginationOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, cfg.PageSize, opts.PageSize)
	assert.Equal(t, cfg.MaxConcurrent, opts.MaxConcurrent)
	require.NotNil(t, opts.MinDelay, "the configured delay is applied to every run")
	assert.Equal(t, cfg.MinDelay, *opts.MinDelay)
	assert.True(t, opts.ReuseProbe)
	assert.Nil(t, opts.Progress)
}

func TestOpenRedis(t *testing.T) {
	cfg := Default()
	rdb, err := cfg.OpenRedis(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rdb, "no redis without a url")

	cfg.RedisURL = "mysql://wrong"
	_, err = cfg.OpenRedis(context.Background())
	assert.Error(t, err)
}
