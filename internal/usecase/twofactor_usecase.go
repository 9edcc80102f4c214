package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TwoFactorSetupOutput returns the pending enrollment material. The secret
// and QR code are shown once; they are retrievable again only by starting
// a fresh setup.
type TwoFactorSetupOutput struct {
	Secret        string
	ProvisionURI  string
	QRCodeDataURI string
}

// TwoFactorVerifyOutput returns the backup codes issued when enrollment is
// confirmed. The plaintext codes are shown exactly once.
type TwoFactorVerifyOutput struct {
	BackupCodes []string
}

// TwoFactorStatusOutput describes an account's current enrollment.
type TwoFactorStatusOutput struct {
	Enabled              bool
	Pending              bool
	RemainingBackupCodes int
	VerifiedAt           *time.Time
}

// DisableTwoFactorInput defines the proof required to turn 2FA off: a
// currently valid TOTP or backup code, or the account password.
type DisableTwoFactorInput struct {
	AccountID uuid.UUID
	Password  string
	Code      string
	Client    ClientInfo
}

// TwoFactorUsecase defines the TOTP enrollment business operations.
type TwoFactorUsecase interface {
	Setup(ctx context.Context, accountID uuid.UUID, client ClientInfo) (*TwoFactorSetupOutput, error)
	Verify(ctx context.Context, accountID uuid.UUID, code string, client ClientInfo) (*TwoFactorVerifyOutput, error)
	Disable(ctx context.Context, input DisableTwoFactorInput) error
	Status(ctx context.Context, accountID uuid.UUID) (*TwoFactorStatusOutput, error)
}
