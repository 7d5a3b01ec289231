// Package metrics exposes the Prometheus metrics of the SCJN client.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, pagination) to maintain modularity and avoid circular
// dependencies.
//
// This package provides the exposition endpoint and the metric reference.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the default Prometheus registry used by the SCJN client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the /metrics handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled. It is meant to
// run in its own goroutine next to a long extraction.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Metrics Documentation
//
// Concurrency Gate Metrics (pkg/ratelimit):
//   - scjn_gate_in_flight (Gauge): Tasks currently holding a gate slot
//   - scjn_gate_wait_seconds (Histogram): Time spent waiting for a slot
//   - scjn_gate_tasks_total{result} (Counter): Gated tasks by result (ok, error, cancelled)
//
// Cooldown Metrics (pkg/ratelimit):
//   - scjn_cooldown_recorded_total (Counter): Cooldowns recorded after 429/503
//   - scjn_cooldown_wait_seconds (Histogram): Time requests spent waiting out a cooldown
//
// Pagination Metrics (pkg/pagination):
//   - scjn_pagination_runs_total{result} (Counter): Bulk extraction runs by result
//   - scjn_pagination_pages_total{result} (Counter): Page fetches by result
//   - scjn_pagination_run_duration_seconds (Histogram): Duration of complete runs
//
// Cache Metrics (pkg/cache):
//   - scjn_cache_hits_total (Counter): Document cache hits
//   - scjn_cache_misses_total (Counter): Document cache misses
//   - scjn_cache_stored_bytes (Counter): Bytes written to the cache
//   - scjn_cache_not_modified_total (Counter): Entries refreshed by 304 Not Modified
//   - scjn_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - scjn_requests_total{route, status} (Counter): Requests by route and HTTP status
//   - scjn_request_duration_seconds{route} (Histogram): Request duration, retries included
//   - scjn_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Retry Metrics (pkg/client):
//   - scjn_retries_total{error_class} (Counter): Retry attempts by error class
//   - scjn_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - scjn_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Gate saturation
//   max_over_time(scjn_gate_in_flight[5m])
//
//   # Page failure rate
//   rate(scjn_pagination_pages_total{result="error"}[5m])
//
//   # Throttling
//   rate(scjn_cooldown_recorded_total[15m]) > 0
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(scjn_request_duration_seconds_bucket[5m]))
//
//   # Document cache hit rate
//   sum(rate(scjn_cache_hits_total[5m])) /
//   (sum(rate(scjn_cache_hits_total[5m])) + sum(rate(scjn_cache_misses_total[5m])))
