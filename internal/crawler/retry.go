package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/observability"
)

const (
	defaultMaxRetries   = 3
	defaultInitialDelay = 2 * time.Second
	defaultMaxDelay     = 30 * time.Second
	delayMultiplier     = 2
)

// transientMarkers are the fragile-automation-layer fault signatures worth
// retrying. The remote surface loses its in-page execution handle under
// normal operation and a fresh attempt usually recovers.
var transientMarkers = []string{
	"execution context was destroyed",
	"cannot find context with specified id",
	"detached frame",
	"frame got detached",
	"protocol error",
	"malformed",
}

// RetryConfig configures the retry envelope for remote automation calls.
// MaxRetries counts retries after the initial attempt.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   defaultMaxRetries,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
	}
}

// delay returns the backoff before retry number attempt (1-based): the
// initial delay doubled per retry, capped at MaxDelay.
func (c RetryConfig) delay(attempt int) time.Duration {
	d := c.InitialDelay

	for i := 1; i < attempt; i++ {
		d *= delayMultiplier
		if d >= c.MaxDelay {
			return c.MaxDelay
		}
	}

	if d > c.MaxDelay {
		return c.MaxDelay
	}

	return d
}

// isTransient reports whether err carries a transient fault signature.
// Cancellation and deadline expiry are never transient.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())

	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}

// withRetry runs one remote operation under the retry envelope. Transient
// faults are retried with exponential backoff until MaxRetries is
// exhausted, after which the last error propagates unchanged. Non-transient
// errors propagate immediately.
func withRetry(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, op string, fn func(ctx context.Context) error) error {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultInitialDelay
	}

	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}

	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			d := cfg.delay(attempt)

			observability.TransientRetries.WithLabelValues(op).Inc()
			logger.Warn().
				Err(lastErr).
				Str(fieldOp, op).
				Int(fieldAttempt, attempt).
				Dur("delay", d).
				Msg("Transient automation fault, retrying")

			select {
			case <-ctx.Done():
				return fmt.Errorf("retry interrupted: %w", ctx.Err())
			case <-time.After(d):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			observability.RemoteCalls.WithLabelValues(op, statusOK).Inc()

			return nil
		}

		if !isTransient(lastErr) {
			observability.RemoteCalls.WithLabelValues(op, statusError).Inc()

			return lastErr
		}
	}

	observability.RemoteCalls.WithLabelValues(op, statusError).Inc()

	return lastErr
}
