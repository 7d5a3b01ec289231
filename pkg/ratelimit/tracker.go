package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for cooldown tracking.
var (
	cooldownRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scjn_cooldown_recorded_total",
		Help: "Total number of throttling responses recorded as cooldowns",
	})

	cooldownWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scjn_cooldown_wait_seconds",
		Help:    "Time requests spent waiting for a shared cooldown to end",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// Tracker shares server cooldowns through Redis so that every client
// instance backs off together. A nil *Tracker is valid and never waits.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new cooldown tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current cooldown state from Redis.
// An absent key means no cooldown is active.
func (t *Tracker) GetState(ctx context.Context) (*CooldownState, error) {
	state := &CooldownState{}
	if t == nil || t.redis == nil {
		return state, nil
	}

	untilMs, err := t.redis.Get(ctx, RedisKeyCooldownUntil).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get cooldown until: %w", err)
	}
	if err == nil {
		state.Until = time.UnixMilli(untilMs)
	}

	lastMs, err := t.redis.Get(ctx, RedisKeyLastThrottle).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last throttle: %w", err)
	}
	if err == nil {
		state.LastThrottle = time.UnixMilli(lastMs)
	}

	return state, nil
}

// RecordThrottle stores a cooldown derived from the response headers.
// An existing longer cooldown is kept.
func (t *Tracker) RecordThrottle(ctx context.Context, headers http.Header) (time.Duration, error) {
	now := time.Now()
	cooldown := ParseRetryAfter(headers, now)
	if t == nil || t.redis == nil || cooldown <= 0 {
		return cooldown, nil
	}

	current, err := t.GetState(ctx)
	if err != nil {
		return cooldown, err
	}

	until := now.Add(cooldown)
	if current.Until.After(until) {
		until = current.Until
	}

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyCooldownUntil, until.UnixMilli(), time.Until(until))
	pipe.Set(ctx, RedisKeyLastThrottle, now.UnixMilli(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return cooldown, fmt.Errorf("store cooldown in redis: %w", err)
	}

	cooldownRecordedTotal.Inc()
	t.logger.Warn().
		Dur("cooldown", cooldown).
		Time("until", until).
		Msg("SCJN throttling response - cooldown recorded")

	return cooldown, nil
}

// Wait blocks until any active cooldown has passed or ctx is done.
// Redis failures are logged and do not block the request.
func (t *Tracker) Wait(ctx context.Context) error {
	if t == nil || t.redis == nil {
		return nil
	}

	state, err := t.GetState(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Cooldown state unavailable - proceeding")
		return nil
	}
	if !state.Active() {
		return nil
	}

	remaining := state.Remaining()
	t.logger.Info().
		Dur("remaining", remaining).
		Msg("Waiting for shared cooldown")

	start := time.Now()
	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
		cooldownWaitSeconds.Observe(time.Since(start).Seconds())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
