// Package model holds the GORM table mappings. Repositories translate
// between these rows and the domain entities.
package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel mirrors the 'accounts' table. Email is unique per tenant;
// the provider identity pair is unique across the system.
type AccountModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_tenant_email;index"`
	Email           string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_accounts_tenant_email"`
	Name            string     `gorm:"type:varchar(255);not null"`
	Role            string     `gorm:"type:varchar(20);not null"`
	PasswordHash    string     `gorm:"type:varchar(255)"`
	PasswordHistory []string   `gorm:"type:jsonb;serializer:json"`
	EmailVerified   bool       `gorm:"not null;default:false"`
	OAuthProvider   string     `gorm:"type:varchar(20);uniqueIndex:idx_accounts_provider_subject"`
	OAuthSubject    string     `gorm:"type:varchar(255);uniqueIndex:idx_accounts_provider_subject"`
	FailedLogins    int        `gorm:"not null;default:0"`
	LockedUntil     *time.Time
	LastLoginAt     *time.Time
	LastLoginIP     string `gorm:"type:varchar(45)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}
