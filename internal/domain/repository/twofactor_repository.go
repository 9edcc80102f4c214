package repository

import (
	"context"
	"errors"

	"atrium/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrTwoFactorNotFound is returned when an account has no TOTP enrollment.
var ErrTwoFactorNotFound = errors.New("two-factor credential not found")

// TwoFactorRepository persists TOTP credentials and backup codes.
type TwoFactorRepository interface {
	// Get retrieves the credential for an account, pending or enabled.
	Get(ctx context.Context, accountID uuid.UUID) (*entity.TwoFactorCredential, error)

	// Save creates or updates the credential for an account.
	Save(ctx context.Context, credential *entity.TwoFactorCredential) error

	// Delete removes the credential and all backup codes for an account.
	Delete(ctx context.Context, accountID uuid.UUID) error

	// ReplaceBackupCodes atomically replaces the stored backup code digests.
	ReplaceBackupCodes(ctx context.Context, accountID uuid.UUID, digests []string) error

	// ListBackupCodeDigests returns the digests of the remaining unused codes.
	ListBackupCodeDigests(ctx context.Context, accountID uuid.UUID) ([]string, error)

	// ConsumeBackupCode deletes the row holding the given digest. The
	// delete doubles as the atomicity guarantee: it reports false when the
	// digest was already consumed by a concurrent request.
	ConsumeBackupCode(ctx context.Context, accountID uuid.UUID, digest string) (bool, error)
}
