package tgpc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"tgpc-backend/lib/timezone"

	"github.com/mazen160/go-random"
)

// ErrCircuitOpen is returned by Wait while the limiter refuses to send
// requests after too many consecutive failures.
var ErrCircuitOpen = fmt.Errorf("circuit breaker is open: too many consecutive failures")

const (
	successDelayFactor     = 0.9
	failureDelayFactor     = 1.5
	blockedDelayFactor     = 2.0
	maxConsecutiveFailures = 5
	circuitBreakerTimeout  = time.Minute * 5
	responseTimeAlpha      = 0.1
)

type RequestStats struct {
	TotalRequests       int64
	SuccessfulRequests  int64
	FailedRequests      int64
	BlockedRequests     int64
	ConsecutiveFailures int
	// exponential moving average, in seconds
	AverageResponseTime float64
	LastRequestTime     time.Time
}

func (s RequestStats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests)
}

type RateLimiterOptions struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	// take a long break after this many requests
	LongBreakAfter    int
	LongBreakDuration time.Duration
	// extra pause applied after the server signals blocking (403/429)
	AdaptivePause time.Duration
}

// RateLimiter paces requests against the council website. Delays adapt
// to the server: successes shrink the delay, failures grow it, and
// explicit blocking responses force a long pause. After 5 consecutive
// failures the breaker opens and Wait fails fast until the timeout
// elapses.
type RateLimiter struct {
	opts RateLimiterOptions

	mu                 sync.Mutex
	stats              RequestStats
	currentDelay       time.Duration
	requestsSinceBreak int
	pendingPause       time.Duration
	breakerOpen        bool
	breakerOpenedAt    time.Time
}

func NewRateLimiter(opts RateLimiterOptions) *RateLimiter {
	if opts.MinDelay <= 0 {
		opts.MinDelay = time.Second * 4
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = time.Second * 10
	}
	if opts.LongBreakAfter <= 0 {
		opts.LongBreakAfter = 100
	}
	if opts.LongBreakDuration <= 0 {
		opts.LongBreakDuration = time.Minute
	}
	if opts.AdaptivePause <= 0 {
		opts.AdaptivePause = time.Minute * 10
	}
	return &RateLimiter{
		opts:         opts,
		currentDelay: opts.MinDelay,
	}
}

// Wait blocks until the next request may be sent or the context is
// cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()

	if r.breakerOpen {
		if timezone.Now().Sub(r.breakerOpenedAt) < circuitBreakerTimeout {
			r.mu.Unlock()
			return ErrCircuitOpen
		}
		r.breakerOpen = false
		r.stats.ConsecutiveFailures = 0
		r.currentDelay = r.opts.MinDelay
		slog.Info("circuit breaker closed after timeout")
	}

	delay := r.delayLocked()
	delay = jitter(delay)

	delay += r.pendingPause
	r.pendingPause = 0

	r.requestsSinceBreak++
	if r.requestsSinceBreak >= r.opts.LongBreakAfter {
		slog.Info(
			"taking long break",
			"requests", r.requestsSinceBreak,
			"duration", r.opts.LongBreakDuration,
		)
		delay += r.opts.LongBreakDuration
		r.requestsSinceBreak = 0
		r.currentDelay = r.opts.MinDelay
	}

	r.mu.Unlock()
	return sleep(ctx, delay)
}

// Record feeds the outcome of a request back into the limiter.
func (r *RateLimiter) Record(responseTime time.Duration, statusCode int, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.TotalRequests++
	r.stats.LastRequestTime = timezone.Now()

	if r.stats.TotalRequests == 1 {
		r.stats.AverageResponseTime = responseTime.Seconds()
	} else {
		r.stats.AverageResponseTime = responseTimeAlpha*responseTime.Seconds() +
			(1-responseTimeAlpha)*r.stats.AverageResponseTime
	}

	if success {
		r.stats.SuccessfulRequests++
		r.stats.ConsecutiveFailures = 0
		r.currentDelay = clampDelay(
			time.Duration(float64(r.currentDelay)*successDelayFactor),
			r.opts.MinDelay, r.opts.MaxDelay,
		)
		return
	}

	r.stats.FailedRequests++
	r.stats.ConsecutiveFailures++
	r.currentDelay = clampDelay(
		time.Duration(float64(r.currentDelay)*failureDelayFactor),
		r.opts.MinDelay, r.opts.MaxDelay,
	)

	if statusCode == 403 || statusCode == 429 {
		r.stats.BlockedRequests++
		r.currentDelay = clampDelay(
			time.Duration(float64(r.currentDelay)*blockedDelayFactor),
			r.opts.MinDelay, r.opts.MaxDelay,
		)
		r.pendingPause = r.opts.AdaptivePause
		slog.Warn(
			"blocking detected, scheduling adaptive pause",
			"status", statusCode,
			"pause", r.opts.AdaptivePause,
		)
	}

	if r.stats.ConsecutiveFailures >= maxConsecutiveFailures {
		r.breakerOpen = true
		r.breakerOpenedAt = timezone.Now()
		slog.Warn(
			"circuit breaker opened",
			"consecutive_failures", r.stats.ConsecutiveFailures,
		)
	}
}

func (r *RateLimiter) Stats() RequestStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Healthy reports whether the limiter considers the remote server
// usable: breaker closed and a success rate of at least 80% once
// enough requests have been seen.
func (r *RateLimiter) Healthy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.breakerOpen {
		return false
	}
	if r.stats.TotalRequests > 10 && r.stats.SuccessRate() < 0.8 {
		return false
	}
	return true
}

func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats = RequestStats{}
	r.currentDelay = r.opts.MinDelay
	r.requestsSinceBreak = 0
	r.pendingPause = 0
	r.breakerOpen = false
}

// delay adjusted for failure streaks and sluggish responses, clamped
// to the configured bounds
func (r *RateLimiter) delayLocked() time.Duration {
	delay := float64(r.currentDelay)

	if r.stats.ConsecutiveFailures > 0 {
		delay *= 1.0 + float64(r.stats.ConsecutiveFailures)*0.5
	}

	if r.stats.AverageResponseTime > 5.0 {
		delay *= 1.2
	} else if r.stats.AverageResponseTime > 0 && r.stats.AverageResponseTime < 1.0 {
		delay *= 0.9
	}

	return clampDelay(time.Duration(delay), r.opts.MinDelay, r.opts.MaxDelay)
}

func clampDelay(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}

// ±20% to avoid hitting the server on a perfectly regular beat
func jitter(d time.Duration) time.Duration {
	percent, err := random.IntRange(80, 121)
	if err != nil {
		return d
	}
	return time.Duration(int64(d) * int64(percent) / 100)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
