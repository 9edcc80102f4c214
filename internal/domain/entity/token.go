package entity

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurpose distinguishes the capability a security token grants.
type TokenPurpose string

const (
	TokenPurposeReset       TokenPurpose = "password_reset"
	TokenPurposeVerifyEmail TokenPurpose = "email_verification"
)

// SecurityToken is an ephemeral single-use capability (password reset or
// email verification). Only the one-way digest of the bearer secret is ever
// stored; the raw secret is transmitted once and never retrievable again.
// Consumption deletes the record, so a consumed token can never validate.
type SecurityToken struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Purpose   TokenPurpose
	Digest    string // SHA-256 digest of the raw bearer secret, hex encoded.
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the token is past its expiry at the given instant.
func (t *SecurityToken) ExpiredAt(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
