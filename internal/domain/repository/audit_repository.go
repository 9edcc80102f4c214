package repository

import (
	"context"
	"time"

	"atrium/internal/domain/entity"

	"github.com/google/uuid"
)

// AuditFilter narrows audit log listings. Zero values mean "no filter".
type AuditFilter struct {
	TenantID   uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	From       time.Time
	To         time.Time
	Page       int // 1-based
	Limit      int
}

// AuditRepository appends and queries immutable audit entries.
type AuditRepository interface {
	// Create appends one entry. Never called directly by usecases; the
	// audit recorder wraps it so failures cannot propagate.
	Create(ctx context.Context, entry *entity.AuditEntry) error

	// List returns matching entries newest first plus the total match count.
	List(ctx context.Context, filter AuditFilter) ([]*entity.AuditEntry, int64, error)

	// DeleteOlderThan removes entries created before the cutoff, returning
	// the count. Used by the retention sweep.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
