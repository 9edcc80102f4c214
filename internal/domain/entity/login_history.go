package entity

import (
	"time"

	"github.com/google/uuid"
)

// Login failure reasons recorded in history entries. These are internal
// labels; the API always reports a generic credential failure.
const (
	LoginFailureBadCredentials = "bad_credentials"
	LoginFailureAccountLocked  = "account_locked"
	LoginFailureTwoFactor      = "two_factor_failed"
	LoginFailureUnknownEmail   = "unknown_email"
)

// LoginAttempt is an immutable record of one authentication attempt.
// AccountID is nil when the email did not resolve to an account.
// Entries are append-only and never mutated.
type LoginAttempt struct {
	ID            uuid.UUID
	AccountID     *uuid.UUID
	Email         string
	Success       bool
	FailureReason string // One of the LoginFailure constants; empty on success.
	IPAddress     string
	UserAgent     string
	Suspicious    bool // Set when the origin or device differs from recent successful logins.
	CreatedAt     time.Time
}
