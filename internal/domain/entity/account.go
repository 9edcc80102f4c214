// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Role describes what an account is allowed to do inside its tenant.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAgent  Role = "agent"
	RoleViewer Role = "viewer"
)

// ProviderType identifies an external identity provider.
type ProviderType string

const (
	ProviderGoogle    ProviderType = "google"
	ProviderMicrosoft ProviderType = "microsoft"
)

// PasswordHistoryDepth is the number of previous password hashes kept per
// account. A new password may not match any of them.
const PasswordHistoryDepth = 5

// Account is the identity record for one person inside one tenant.
// An account authenticates either with a password (PasswordHash set), an
// external provider (OAuthProvider set), or both. An account with neither
// is unreachable and must never exist after creation completes.
type Account struct {
	ID              uuid.UUID  // Global unique identifier for the account.
	TenantID        uuid.UUID  // The tenant (agency) this account belongs to.
	Email           string     // Login identifier, unique across the system.
	Name            string     // Display name.
	Role            Role       // Authorization role within the tenant.
	PasswordHash    string     // bcrypt hash; empty for OAuth-only accounts.
	PasswordHistory []string   // Prior password hashes, newest first, bounded by PasswordHistoryDepth.
	EmailVerified   bool       // True once the verification link was followed or the provider vouched for the email.
	OAuthProvider   ProviderType // Linked external provider; empty for password-only accounts.
	OAuthSubject    string     // The provider's stable subject identifier ('sub' claim).
	FailedLogins    int        // Consecutive failed login attempts since the last success.
	LockedUntil     *time.Time // When set and in the future, logins are rejected.
	LastLoginAt     *time.Time // Timestamp of the last successful authentication.
	LastLoginIP     string     // Origin address of the last successful authentication.
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasPassword reports whether the account can authenticate with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// HasOAuth reports whether the account has a linked external provider.
func (a *Account) HasOAuth() bool {
	return a.OAuthProvider != ""
}

// LockedAt reports whether the account is locked out at the given instant.
func (a *Account) LockedAt(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// ClearExpiredLock drops a lapsed lockout together with its failure counter
// so the next failed attempt counts from zero again. Reports whether the
// account changed.
func (a *Account) ClearExpiredLock(now time.Time) bool {
	if a.LockedUntil == nil || a.LockedUntil.After(now) {
		return false
	}
	a.LockedUntil = nil
	a.FailedLogins = 0

	return true
}

// RememberPassword pushes the current hash onto the history before a new
// one replaces it, trimming the history to PasswordHistoryDepth entries.
func (a *Account) RememberPassword() {
	if a.PasswordHash == "" {
		return
	}
	history := append([]string{a.PasswordHash}, a.PasswordHistory...)
	if len(history) > PasswordHistoryDepth {
		history = history[:PasswordHistoryDepth]
	}
	a.PasswordHistory = history
}
