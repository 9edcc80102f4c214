package entity

import (
	"time"

	"github.com/google/uuid"
)

// BackupCodeCount is the number of single-use recovery codes issued per setup.
const BackupCodeCount = 10

// TwoFactorCredential holds an account's TOTP enrollment.
//
// Lifecycle: created in pending state when setup generates a secret
// (Enabled=false, VerifiedAt=nil), promoted to enabled on the first
// successful code verification, and deleted entirely on disable.
// Enabled is never true without a successful verification of the
// currently stored secret.
type TwoFactorCredential struct {
	AccountID  uuid.UUID
	Secret     string     // Shared secret, base32 without padding.
	Enabled    bool
	VerifiedAt *time.Time // Set on the first successful verification.
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Pending reports whether the credential awaits its first verification.
func (c *TwoFactorCredential) Pending() bool {
	return !c.Enabled
}

// BackupCode is one single-use recovery credential. Only the digest is
// stored; consuming a code deletes its row so it can never be replayed.
type BackupCode struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Digest    string // SHA-256 digest of the plaintext code, hex encoded.
	CreatedAt time.Time
}
