package browser

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// retryConfig controls navigation retry with exponential backoff and jitter.
type retryConfig struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitterFraction float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxAttempts:    3,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     5 * time.Second,
		multiplier:     2.0,
		jitterFraction: 0.25,
	}
}

// withRetry executes fn, retrying transient failures. Context cancellation
// stops retries immediately.
func withRetry(ctx context.Context, cfg retryConfig, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !isTransient(err) || attempt == cfg.maxAttempts {
			return err
		}

		delay := backoffDelay(cfg, attempt)
		zap.L().Debug("retrying after transient failure",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func backoffDelay(cfg retryConfig, attempt int) time.Duration {
	delay := float64(cfg.initialBackoff) * math.Pow(cfg.multiplier, float64(attempt-1))
	if delay > float64(cfg.maxBackoff) {
		delay = float64(cfg.maxBackoff)
	}
	jitter := (rand.Float64()*2 - 1) * cfg.jitterFraction * delay
	return time.Duration(delay + jitter)
}

// isTransient reports whether a navigation error is worth retrying: network
// timeouts, connection resets, and renderer aborts. Anything else fails fast.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range []string{
		"connection refused", "connection reset", "net::err_", "timed out", "temporarily unavailable",
	} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
