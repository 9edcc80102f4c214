package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogModel mirrors the append-only 'audit_logs' table. Before and
// After snapshots are stored as JSONB documents.
type AuditLogModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	ActorID    *uuid.UUID     `gorm:"type:uuid;index"`
	Action     string         `gorm:"type:varchar(50);not null;index"`
	EntityType string         `gorm:"type:varchar(50)"`
	EntityID   *uuid.UUID     `gorm:"type:uuid"`
	Before     map[string]any `gorm:"type:jsonb;serializer:json"`
	After      map[string]any `gorm:"type:jsonb;serializer:json"`
	IPAddress  string         `gorm:"type:varchar(45)"`
	UserAgent  string         `gorm:"type:varchar(512)"`
	CreatedAt  time.Time      `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (AuditLogModel) TableName() string {
	return "audit_logs"
}
