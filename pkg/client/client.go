// Package client provides the SCJN thesis search client with retrying
// transport, shared cooldowns, document caching and bounded-concurrency
// bulk extraction.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/scjn-client/pkg/cache"
	"github.com/Sternrassler/scjn-client/pkg/logging"
	"github.com/Sternrassler/scjn-client/pkg/pagination"
	"github.com/Sternrassler/scjn-client/pkg/ratelimit"
	"github.com/Sternrassler/scjn-client/pkg/search"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for SCJN client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scjn_requests_total",
		Help: "Total SCJN requests by route and status",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scjn_request_duration_seconds",
		Help:    "SCJN request duration in seconds by route, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"route"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scjn_errors_total",
		Help: "Total SCJN errors by class",
	}, []string{"class"})
)

// Public SCJN endpoints.
const (
	DefaultBaseURL   = "https://sjf2.scjn.gob.mx/services/sjftesismicroservice/api/public"
	DefaultHostName  = "https://sjf2.scjn.gob.mx"
	DefaultUserAgent = "scjn-client/0.1.0"
)

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 512

// Config holds the client configuration.
type Config struct {
	// BaseURL of the public thesis microservice.
	BaseURL string `validate:"required,url"`

	// HostName is sent with document lookups.
	HostName string `validate:"required,url"`

	UserAgent string        `validate:"required"`
	Timeout   time.Duration `validate:"gt=0"`

	Retry RetryConfig

	// Gate bounds concurrent requests of bulk operations.
	Gate ratelimit.GateConfig

	// Redis enables document caching and shared cooldowns. Optional.
	Redis *redis.Client `validate:"-"`

	// CacheTTL is the fallback document lifetime (default cache.DefaultTTL).
	CacheTTL time.Duration `validate:"gte=0"`

	// Logger overrides the component logger. Optional.
	Logger *zerolog.Logger `validate:"-"`
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		HostName:  DefaultHostName,
		UserAgent: DefaultUserAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
		Gate:      ratelimit.DefaultGateConfig(),
		CacheTTL:  cache.DefaultTTL,
	}
}

var validate = validator.New()

// Client is the SCJN API client.
type Client struct {
	httpClient *http.Client
	config     Config
	gate       *ratelimit.Gate
	cooldown   *ratelimit.Tracker
	cache      *cache.Store
	summaries  *pagination.Engine[search.Filter, search.Summary]
	logger     zerolog.Logger
}

// New creates a new SCJN client.
func New(cfg Config) (*Client, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Gate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger := logging.NewLogger("scjn-client")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	gate, err := ratelimit.NewGate(cfg.Gate, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		gate:       gate,
		logger:     logger,
	}

	if cfg.Redis != nil {
		c.cooldown = ratelimit.NewTracker(cfg.Redis, logger)
		c.cache = cache.NewStore(cfg.Redis, cfg.CacheTTL)
	}

	c.summaries = pagination.NewEngine(c.fetchSummaries, gate, logger)

	return c, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Gate returns the concurrency gate shared by bulk operations.
func (c *Client) Gate() *ratelimit.Gate {
	return c.gate
}

// do performs a request with cooldown, retry and error classification.
// 2xx and 304 responses are returned to the caller with an open body.
func (c *Client) do(ctx context.Context, route, method, url string, body []byte, prepare func(*http.Request)) (*http.Response, error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}()

	var resp *http.Response
	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		if err := c.cooldown.Wait(ctx); err != nil {
			return err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if prepare != nil {
			prepare(req)
		}

		c.logger.Debug().
			Str("route", route).
			Str("method", method).
			Msg("Executing SCJN request")

		r, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(route, "network_error").Inc()
			c.logger.Warn().Err(err).Str("route", route).Msg("HTTP request failed")
			return &APIError{Class: ErrorClassNetwork, Message: "request failed", Err: err}
		}

		requestsTotal.WithLabelValues(route, strconv.Itoa(r.StatusCode)).Inc()

		if r.StatusCode < 400 {
			resp = r
			return nil
		}

		apiErr := c.classify(ctx, r)
		errorsTotal.WithLabelValues(string(apiErr.Class)).Inc()
		c.logger.Warn().
			Str("route", route).
			Int("status", r.StatusCode).
			Str("error_class", string(apiErr.Class)).
			Msg("SCJN request error")
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// classify turns an error response into an APIError and closes its body.
func (c *Client) classify(ctx context.Context, resp *http.Response) *APIError {
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := strings.TrimSpace(string(snippet))
	if message == "" {
		message = resp.Status
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: message}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		apiErr.Class = ErrorClassRateLimit
		cooldown, err := c.cooldown.RecordThrottle(ctx, resp.Header)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to record cooldown")
		}
		// With a shared tracker the next attempt waits in cooldown.Wait.
		if c.cooldown == nil && resp.Header.Get("Retry-After") != "" {
			apiErr.RetryAfter = cooldown
		}
	case resp.StatusCode >= 500:
		apiErr.Class = ErrorClassServer
	default:
		apiErr.Class = ErrorClassClient
	}

	return apiErr
}

// decodeJSON reads a JSON body into v and closes it.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassDecode,
			Message:    "decode response",
			Err:        err,
		}
	}
	return nil
}

// isNotModified reports a 304 answer to a conditional request.
func isNotModified(resp *http.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotModified
}

// Close releases resources held by the client. The Redis client is owned
// by the caller and left open.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
