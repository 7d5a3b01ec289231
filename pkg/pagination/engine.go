package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/scjn-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ProbeSize is the page size of the count probe.
const ProbeSize = 1

// DefaultPageSize matches the SCJN search default.
const DefaultPageSize = 100

// Prometheus metrics for pagination runs.
var (
	paginationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scjn_pagination_runs_total",
		Help: "Total pagination runs by result",
	}, []string{"result"})

	paginationPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scjn_pagination_pages_total",
		Help: "Total page fetches by result",
	}, []string{"result"})

	paginationRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scjn_pagination_run_duration_seconds",
		Help:    "Duration of complete pagination runs",
		Buckets: []float64{0.5, 1, 5, 15, 60, 300, 900},
	})
)

// Request identifies one page of a filtered result set.
type Request[F any] struct {
	Filter F
	Page   int // 0-based
	Size   int
}

// Page is one page as returned by the backend.
type Page[T any] struct {
	Items []T

	// TotalCount is the number of matches for the filter, independent of
	// page and size.
	TotalCount int
}

// FetchFunc fetches a single page. Transient failures must already be
// retried by the implementation; any returned error fails the run.
type FetchFunc[F, T any] func(ctx context.Context, req Request[F]) (Page[T], error)

// Identifiable is implemented by items that carry a stable identifier.
type Identifiable interface {
	ID() string
}

// Options configures one GetAll run.
type Options struct {
	// PageSize is the number of items requested per page.
	PageSize int

	// MaxConcurrent bounds the page fetches in flight. It reconfigures the
	// engine's gate for this and later runs.
	MaxConcurrent int

	// MinDelay is held after each page before its slot is handed on. Nil
	// keeps the delay the gate is already configured with.
	MinDelay *time.Duration

	// Progress receives notifications; nil disables reporting.
	Progress ProgressObserver

	// ReuseProbe fetches the probe at PageSize and keeps it as page 0,
	// saving one request.
	ReuseProbe bool
}

// DefaultOptions returns the defaults used by the SCJN client. The gate's
// delay is left as configured.
func DefaultOptions() Options {
	return Options{
		PageSize:      DefaultPageSize,
		MaxConcurrent: ratelimit.DefaultMaxConcurrent,
	}
}

// Delay returns d as an Options.MinDelay value.
func Delay(d time.Duration) *time.Duration {
	return &d
}

// Validate rejects non-positive sizes and limits and negative delays.
func (o Options) Validate() error {
	if o.PageSize <= 0 {
		return &ConfigError{Field: "page size", Value: o.PageSize}
	}
	if o.MaxConcurrent <= 0 {
		return &ConfigError{Field: "max concurrent", Value: o.MaxConcurrent}
	}
	if o.MinDelay != nil && *o.MinDelay < 0 {
		return &ConfigError{Field: "min delay", Value: *o.MinDelay}
	}
	return nil
}

// TotalPages returns ceil(total / pageSize).
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Engine fetches every page of a filter under a concurrency gate.
//
// Engines sharing a gate also share its limit: each run reconfigures the
// gate with its own MaxConcurrent.
type Engine[F, T any] struct {
	fetch  FetchFunc[F, T]
	gate   *ratelimit.Gate
	logger zerolog.Logger
}

// NewEngine creates an engine. A nil gate is replaced with one using
// ratelimit.DefaultGateConfig.
func NewEngine[F, T any](fetch FetchFunc[F, T], gate *ratelimit.Gate, logger zerolog.Logger) *Engine[F, T] {
	if gate == nil {
		// The default config is valid by construction.
		gate, _ = ratelimit.NewGate(ratelimit.DefaultGateConfig(), logger)
	}
	return &Engine[F, T]{
		fetch:  fetch,
		gate:   gate,
		logger: logger,
	}
}

// GetAll returns every item matching filter, ordered by page index.
func (e *Engine[F, T]) GetAll(ctx context.Context, filter F, opts Options) ([]T, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	items, err := e.run(ctx, filter, opts)
	paginationRunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		paginationRunsTotal.WithLabelValues("error").Inc()
		e.logger.Warn().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Pagination run failed")
		return nil, err
	}

	paginationRunsTotal.WithLabelValues("ok").Inc()
	e.logger.Info().
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Pagination run complete")

	return items, nil
}

func (e *Engine[F, T]) run(ctx context.Context, filter F, opts Options) ([]T, error) {
	gateCfg := e.gate.Config()
	gateCfg.MaxConcurrent = opts.MaxConcurrent
	if opts.MinDelay != nil {
		gateCfg.MinDelay = *opts.MinDelay
	}
	if err := e.gate.Configure(gateCfg); err != nil {
		return nil, fmt.Errorf("configure gate: %w", err)
	}

	progress := newSerialObserver(opts.Progress)

	probeSize := ProbeSize
	if opts.ReuseProbe {
		probeSize = opts.PageSize
	}

	probe, err := ratelimit.Run[Page[T]](ctx, e.gate, func(ctx context.Context) (Page[T], error) {
		return e.fetch(ctx, Request[F]{Filter: filter, Page: 0, Size: probeSize})
	})
	if err != nil {
		paginationPagesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch probe page: %w", err)
	}
	if probe.TotalCount < 0 {
		return nil, fmt.Errorf("%w: probe reported %d", ErrInvalidTotal, probe.TotalCount)
	}

	total := probe.TotalCount
	totalPages := TotalPages(total, opts.PageSize)
	progress.report(Progress{Completed: 0, Total: total, Page: 0, TotalPages: totalPages})

	e.logger.Info().
		Int("total_count", total).
		Int("total_pages", totalPages).
		Int("page_size", opts.PageSize).
		Int("max_concurrent", gateCfg.MaxConcurrent).
		Dur("min_delay", gateCfg.MinDelay).
		Msg("Starting parallel page fetch")

	if total == 0 {
		return []T{}, nil
	}

	first := 0
	var head []T
	if opts.ReuseProbe {
		paginationPagesTotal.WithLabelValues("ok").Inc()
		head = probe.Items
		first = 1
		progress.report(Progress{
			Completed:  min(opts.PageSize, total),
			Total:      total,
			Page:       1,
			TotalPages: totalPages,
		})
	}

	tasks := make([]ratelimit.Task[[]T], 0, totalPages-first)
	for page := first; page < totalPages; page++ {
		tasks = append(tasks, e.pageTask(filter, page, opts.PageSize, total, totalPages, progress))
	}

	pages, err := ratelimit.RunAll(ctx, e.gate, tasks)
	if err != nil {
		var pageErr *PageError
		if errors.As(err, &pageErr) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch pages: %w", err)
	}

	n := len(head)
	for _, p := range pages {
		n += len(p)
	}
	items := make([]T, 0, n)
	items = append(items, head...)
	for _, p := range pages {
		items = append(items, p...)
	}

	return items, nil
}

func (e *Engine[F, T]) pageTask(filter F, page, size, total, totalPages int, progress *serialObserver) ratelimit.Task[[]T] {
	return func(ctx context.Context) ([]T, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := e.fetch(ctx, Request[F]{Filter: filter, Page: page, Size: size})
		if err != nil {
			paginationPagesTotal.WithLabelValues("error").Inc()
			e.logger.Warn().
				Err(err).
				Int("page", page).
				Msg("Page fetch failed")
			return nil, &PageError{Page: page, Err: err}
		}
		paginationPagesTotal.WithLabelValues("ok").Inc()

		progress.report(Progress{
			Completed:  min((page+1)*size, total),
			Total:      total,
			Page:       page + 1,
			TotalPages: totalPages,
		})

		if (page+1)%50 == 0 {
			e.logger.Debug().
				Int("page", page+1).
				Int("total_pages", totalPages).
				Msg("Fetch progress")
		}

		return res.Items, nil
	}
}

// GetAllIDs is GetAll projected onto item identifiers.
func GetAllIDs[F any, T Identifiable](ctx context.Context, e *Engine[F, T], filter F, opts Options) ([]string, error) {
	items, err := e.GetAll(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID()
	}
	return ids, nil
}
