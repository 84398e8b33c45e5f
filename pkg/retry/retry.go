package retry

import (
	"context"
	"fmt"
	"time"

	errs "biliguard/pkg/errors"
	"biliguard/pkg/logger"
)

const (
	// DefaultMaxAttempts is the generic attempt budget for a remote operation
	DefaultMaxAttempts = 5

	// defaultTransientDelay is the fixed pause after a disconnect or timeout
	defaultTransientDelay = 2 * time.Second

	// defaultRateLimitBase is the base pause after a rate-limit classified
	// error; attempt i sleeps base * 2^i
	defaultRateLimitBase = 120 * time.Second
)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts
	MaxAttempts int
	// TransientDelay is the fixed delay after a transient network error
	TransientDelay time.Duration
	// RateLimitBase is the base delay after a rate-limit error
	RateLimitBase time.Duration
	// Logger for retry attempts
	Logger logger.Logger
	// Sleep waits between attempts; overridable in tests
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:    DefaultMaxAttempts,
		TransientDelay: defaultTransientDelay,
		RateLimitBase:  defaultRateLimitBase,
		Logger:         logger.GetLogger(),
		Sleep:          Wait,
	}
}

// Do executes op with retry logic. Transient network errors wait a short
// fixed delay; rate-limit errors wait RateLimitBase * 2^attempt; not-found
// errors propagate immediately because the resource is gone upstream, which
// is an expected terminal condition, not a fault. Anything else is logged
// and retried up to the attempt budget.
func Do[T any](ctx context.Context, cfg *Config, name string, op func() (T, error)) (T, error) {
	var zero T
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Wait
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			if attempt > 0 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"operation": name,
					"attempt":   attempt + 1,
				})
			}
			return result, nil
		}

		if errs.IsNotFound(err) {
			return zero, err
		}

		lastErr = err

		var delay time.Duration
		switch {
		case errs.IsTransient(err):
			delay = cfg.TransientDelay
		case errs.IsRateLimited(err):
			delay = cfg.RateLimitBase * (1 << attempt)
		default:
			delay = cfg.TransientDelay
		}

		log.WarnWithFields("retrying operation", map[string]interface{}{
			"operation":    name,
			"attempt":      attempt + 1,
			"max_attempts": cfg.MaxAttempts,
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
		})

		if err := sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("retry cancelled: %w", err)
		}
	}

	log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
		"operation":  name,
		"attempts":   cfg.MaxAttempts,
		"last_error": lastErr.Error(),
	})
	return zero, fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

// Wait waits for the specified duration or until the context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
