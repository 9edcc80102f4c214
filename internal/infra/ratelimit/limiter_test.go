package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/config"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/service"
	"atrium/internal/infra/state"
)

func testLimiter() service.RateLimiter {
	return New(state.NewMemoryStore(), config.RateLimitConfig{
		Window:            15 * time.Minute,
		MaxAttempts:       5,
		ResendWindow:      time.Hour,
		ResendMaxAttempts: 3,
	})
}

func TestLimiter_AllowsWithinBudget(t *testing.T) {
	limiter := testLimiter()
	ctx := context.Background()

	for range 5 {
		require.NoError(t, limiter.Allow(ctx, service.RateActionLogin, "alice@example.com"))
	}
}

func TestLimiter_BlocksBeyondBudget(t *testing.T) {
	limiter := testLimiter()
	ctx := context.Background()

	for range 5 {
		require.NoError(t, limiter.Allow(ctx, service.RateActionLogin, "alice@example.com"))
	}

	err := limiter.Allow(ctx, service.RateActionLogin, "alice@example.com")
	require.Error(t, err)

	var rateErr *domainerrors.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Positive(t, rateErr.RetryAfter)
	assert.LessOrEqual(t, rateErr.RetryAfter, int((15 * time.Minute).Seconds()))
}

func TestLimiter_ActionsCountIndependently(t *testing.T) {
	limiter := testLimiter()
	ctx := context.Background()

	for range 5 {
		require.NoError(t, limiter.Allow(ctx, service.RateActionLogin, "alice@example.com"))
	}

	// Exhausting login leaves password reset untouched, and other
	// identities keep their own budget.
	assert.NoError(t, limiter.Allow(ctx, service.RateActionPasswordReset, "alice@example.com"))
	assert.NoError(t, limiter.Allow(ctx, service.RateActionLogin, "bob@example.com"))
}

func TestLimiter_ResendVerificationHasOwnBudget(t *testing.T) {
	limiter := testLimiter()
	ctx := context.Background()

	for range 3 {
		require.NoError(t, limiter.Allow(ctx, service.RateActionResendVerification, "alice@example.com"))
	}

	err := limiter.Allow(ctx, service.RateActionResendVerification, "alice@example.com")
	var rateErr *domainerrors.RateLimitError
	require.ErrorAs(t, err, &rateErr)
}

func TestLimiter_ResetClearsWindow(t *testing.T) {
	limiter := testLimiter()
	ctx := context.Background()

	for range 5 {
		require.NoError(t, limiter.Allow(ctx, service.RateActionLogin, "alice@example.com"))
	}
	require.Error(t, limiter.Allow(ctx, service.RateActionLogin, "alice@example.com"))

	require.NoError(t, limiter.Reset(ctx, service.RateActionLogin, "alice@example.com"))
	assert.NoError(t, limiter.Allow(ctx, service.RateActionLogin, "alice@example.com"))
}
