// Package circuitbreaker wraps gobreaker with a generic, narrow API so
// business-layer clients don't depend on the underlying library directly.
package circuitbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config tunes a single breaker instance.
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureRatio trips the breaker when the fraction of failed requests
	// counted within Interval reaches this ratio (once MinSamples requests
	// have been seen).
	FailureRatio float64
	MinSamples   uint32
	OnStateChange func(name string, from, to string)
}

// DefaultConfig returns sane defaults for an outbound network call: trips
// after 60% failures across at least 5 requests, half-opens after 30s.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinSamples:   5,
	}
}

// CircuitBreaker wraps a typed call behind gobreaker's state machine.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a circuit breaker for calls returning T.
func New[T any](cfg Config) *CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinSamples {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			cfg.OnStateChange(name, from.String(), to.String())
		}
	}
	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker, short-circuiting with
// gobreaker.ErrOpenState / gobreaker.ErrTooManyRequests when tripped.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	return c.cb.Execute(fn)
}

// ExecuteContext runs fn through the breaker, aborting early if ctx is done.
func (c *CircuitBreaker[T]) ExecuteContext(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	return c.cb.Execute(func() (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		return fn(ctx)
	})
}

// State returns the breaker's current state name.
func (c *CircuitBreaker[T]) State() string {
	return c.cb.State().String()
}

// IsOpen reports whether the breaker is currently open.
func (c *CircuitBreaker[T]) IsOpen() bool {
	return c.cb.State() == gobreaker.StateOpen
}
