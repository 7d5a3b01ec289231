package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Defaults applied by DefaultGateConfig.
const (
	// DefaultMaxConcurrent keeps the SCJN backend at three parallel requests.
	DefaultMaxConcurrent = 3

	// DefaultMinDelay is held after every task before its slot is handed on.
	DefaultMinDelay = 100 * time.Millisecond
)

// ErrInvalidGateConfig is returned for a non-positive limit or a negative delay.
var ErrInvalidGateConfig = errors.New("invalid gate configuration")

// Prometheus metrics for the concurrency gate.
var (
	gateInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scjn_gate_in_flight",
		Help: "Number of tasks currently holding a gate slot",
	})

	gateWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scjn_gate_wait_seconds",
		Help:    "Time spent waiting for a gate slot",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	})

	gateTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scjn_gate_tasks_total",
		Help: "Total gated tasks by result",
	}, []string{"result"})
)

// GateConfig holds the admission policy of a Gate.
type GateConfig struct {
	// MaxConcurrent is the number of tasks allowed to hold a slot at once.
	MaxConcurrent int

	// MinDelay is slept after each task completes, before its slot is released.
	MinDelay time.Duration
}

// DefaultGateConfig returns the polite defaults for the SCJN service.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxConcurrent: DefaultMaxConcurrent,
		MinDelay:      DefaultMinDelay,
	}
}

// Validate checks the limit and delay.
func (c GateConfig) Validate() error {
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: max concurrent must be > 0 (got %d)", ErrInvalidGateConfig, c.MaxConcurrent)
	}
	if c.MinDelay < 0 {
		return fmt.Errorf("%w: min delay must be >= 0 (got %s)", ErrInvalidGateConfig, c.MinDelay)
	}
	return nil
}

// Task is a unit of work admitted through a Gate.
type Task[T any] func(ctx context.Context) (T, error)

// Gate bounds the number of concurrently running tasks and spaces out
// slot hand-over by a minimum delay.
//
// Each configuration owns its own semaphore. Reconfiguring swaps the
// semaphore; tasks release into the one they acquired from, so running
// tasks are never pre-empted and later admissions only count against the
// new limit.
type Gate struct {
	mu       sync.RWMutex
	sem      *semaphore.Weighted
	cfg      GateConfig
	inFlight atomic.Int64
	logger   zerolog.Logger
}

// NewGate creates a gate with the given policy.
func NewGate(cfg GateConfig, logger zerolog.Logger) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Gate{
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Configure replaces the active limit and delay.
func (g *Gate) Configure(cfg GateConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cfg == g.cfg {
		return nil
	}

	if cfg.MaxConcurrent != g.cfg.MaxConcurrent {
		g.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	g.cfg = cfg

	g.logger.Debug().
		Int("max_concurrent", cfg.MaxConcurrent).
		Dur("min_delay", cfg.MinDelay).
		Msg("Gate reconfigured")

	return nil
}

// Config returns the active policy.
func (g *Gate) Config() GateConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

// InFlight returns the number of tasks currently holding a slot.
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}

func (g *Gate) current() (*semaphore.Weighted, time.Duration) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sem, g.cfg.MinDelay
}

// acquire blocks until a slot of the current semaphore is held.
// A waiter that was admitted by a semaphore replaced in the meantime gives
// the slot back and queues on the new one.
func (g *Gate) acquire(ctx context.Context) (*semaphore.Weighted, time.Duration, error) {
	for {
		sem, delay := g.current()
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, 0, err
		}
		if now, _ := g.current(); now == sem {
			return sem, delay, nil
		}
		sem.Release(1)
	}
}

// Run admits task once a slot is free, executes it, holds the slot for the
// configured minimum delay and then releases it. The slot is released on
// every exit path, including panics and cancellation.
func Run[T any](ctx context.Context, g *Gate, task Task[T]) (T, error) {
	var zero T

	start := time.Now()
	sem, delay, err := g.acquire(ctx)
	if err != nil {
		gateTasksTotal.WithLabelValues("cancelled").Inc()
		return zero, err
	}
	gateWaitSeconds.Observe(time.Since(start).Seconds())

	g.inFlight.Add(1)
	gateInFlight.Inc()
	defer func() {
		g.inFlight.Add(-1)
		gateInFlight.Dec()
		sem.Release(1)
	}()

	result, err := task(ctx)
	if err != nil {
		gateTasksTotal.WithLabelValues("error").Inc()
	} else {
		gateTasksTotal.WithLabelValues("ok").Inc()
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	if err != nil {
		return zero, err
	}
	return result, nil
}

// RunAll submits every task to the gate and returns the results in input
// order. The first failure cancels the shared context: tasks still waiting
// for a slot are never started, and the partial results are discarded.
func RunAll[T any](ctx context.Context, g *Gate, tasks []Task[T]) ([]T, error) {
	results := make([]T, len(tasks))

	grp, gctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		grp.Go(func() error {
			result, err := Run(gctx, g, task)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
