package service

import "context"

// Rate-limited action buckets. Each action counts independently so
// exhausting one does not block another.
const (
	RateActionLogin              = "login"
	RateActionPasswordReset      = "password_reset"
	RateActionResendVerification = "resend_verification"
	RateActionTwoFactorSetup     = "2fa_setup"
	RateActionTwoFactorVerify    = "2fa_verify"
	RateActionTwoFactorDisable   = "2fa_disable"
	RateActionOAuthLink          = "oauth_link"
)

// RateLimiter caps attempts per (action, identity) inside a sliding window.
type RateLimiter interface {
	// Allow records one attempt and returns a *domainerrors.RateLimitError
	// once the budget for the window is exhausted.
	Allow(ctx context.Context, action, identity string) error

	// Reset clears the window for a key, called after a successful
	// sensitive operation so legitimate users are not penalized by their
	// own prior failures.
	Reset(ctx context.Context, action, identity string) error
}

// StateStore is a TTL key-value capability backing the rate limiter and the
// OAuth state/pending-link tickets. Injected so multi-instance deployments
// can share a store instead of per-process memory.
type StateStore interface {
	// Incr increments the counter under key, starting the window (and the
	// TTL) on the first increment. It returns the new count and the time
	// remaining in the window, in milliseconds.
	Incr(ctx context.Context, key string, windowMillis int64) (count int64, remainingMillis int64, err error)

	// Get returns the value stored under key, if present and unexpired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key with a TTL in milliseconds.
	Set(ctx context.Context, key, value string, ttlMillis int64) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
