package model

import (
	"time"

	"github.com/google/uuid"
)

// TwoFactorCredentialModel mirrors the 'two_factor_credentials' table.
// One row per account.
type TwoFactorCredentialModel struct {
	AccountID  uuid.UUID `gorm:"type:uuid;primary_key"`
	Secret     string    `gorm:"type:varchar(64);not null"`
	Enabled    bool      `gorm:"not null;default:false"`
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (TwoFactorCredentialModel) TableName() string {
	return "two_factor_credentials"
}

// BackupCodeModel mirrors the 'backup_codes' table. Consuming a code
// deletes its row.
type BackupCodeModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_backup_codes_account_digest"`
	Digest    string    `gorm:"type:char(64);not null;uniqueIndex:idx_backup_codes_account_digest"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (BackupCodeModel) TableName() string {
	return "backup_codes"
}
