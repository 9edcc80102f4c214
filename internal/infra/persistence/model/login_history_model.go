package model

import (
	"time"

	"github.com/google/uuid"
)

// LoginAttemptModel mirrors the append-only 'login_history' table.
type LoginAttemptModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	AccountID     *uuid.UUID `gorm:"type:uuid;index"`
	Email         string     `gorm:"type:varchar(255);not null;index"`
	Success       bool       `gorm:"not null"`
	FailureReason string     `gorm:"type:varchar(30)"`
	IPAddress     string     `gorm:"type:varchar(45)"`
	UserAgent     string     `gorm:"type:varchar(512)"`
	Suspicious    bool       `gorm:"not null;default:false"`
	CreatedAt     time.Time  `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (LoginAttemptModel) TableName() string {
	return "login_history"
}
