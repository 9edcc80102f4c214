// Package ratelimit caps attempts per (action, identity) inside a fixed
// window on top of the shared state store.
package ratelimit

import (
	"context"

	"github.com/pkg/errors"

	"atrium/config"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/service"
)

type limiter struct {
	store service.StateStore
	cfg   config.RateLimitConfig
}

// New builds the rate limiter from configuration. Resend-verification gets
// its own stricter budget; every other action shares the default window.
func New(store service.StateStore, cfg config.RateLimitConfig) service.RateLimiter {
	return &limiter{store: store, cfg: cfg}
}

func (l *limiter) budget(action string) (windowMillis int64, maxAttempts int64) {
	if action == service.RateActionResendVerification {
		return l.cfg.ResendWindow.Milliseconds(), int64(l.cfg.ResendMaxAttempts)
	}

	return l.cfg.Window.Milliseconds(), int64(l.cfg.MaxAttempts)
}

// Allow records one attempt and fails with a RateLimitError carrying the
// retry-after once the budget is exhausted.
func (l *limiter) Allow(ctx context.Context, action, identity string) error {
	windowMillis, maxAttempts := l.budget(action)

	count, remainingMillis, err := l.store.Incr(ctx, key(action, identity), windowMillis)
	if err != nil {
		return errors.Wrap(err, "rate limit incr")
	}

	if count > maxAttempts {
		retryAfter := int((remainingMillis + 999) / 1000)
		if retryAfter < 1 {
			retryAfter = 1
		}

		return domainerrors.NewRateLimitError(retryAfter)
	}

	return nil
}

// Reset clears the window for a key so a successful sensitive operation
// does not leave the caller penalized by prior failures.
func (l *limiter) Reset(ctx context.Context, action, identity string) error {
	if err := l.store.Delete(ctx, key(action, identity)); err != nil {
		return errors.Wrap(err, "rate limit reset")
	}

	return nil
}

func key(action, identity string) string {
	return "rl:" + action + ":" + identity
}
