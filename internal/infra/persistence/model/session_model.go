package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionModel mirrors the 'sessions' table. One row per logged-in device.
type SessionModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	AccountID      uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenDigest    string    `gorm:"type:char(64);unique;not null"`
	Browser        string    `gorm:"type:varchar(100)"`
	OS             string    `gorm:"type:varchar(100)"`
	DeviceType     string    `gorm:"type:varchar(20)"`
	IPAddress      string    `gorm:"type:varchar(45)"`
	UserAgent      string    `gorm:"type:varchar(512)"`
	LastActivityAt time.Time `gorm:"not null"`
	ExpiresAt      time.Time `gorm:"not null;index"`
	CreatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}
