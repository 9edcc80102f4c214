package model

import (
	"time"

	"github.com/google/uuid"
)

// SecurityTokenModel mirrors the 'security_tokens' table. One row per
// (account, purpose); issuing a new token replaces the previous row.
type SecurityTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_security_tokens_account_purpose"`
	Purpose   string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_security_tokens_account_purpose"`
	Digest    string    `gorm:"type:char(64);not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (SecurityTokenModel) TableName() string {
	return "security_tokens"
}
