package repository

import (
	"context"

	"atrium/internal/domain/entity"

	"github.com/google/uuid"
)

// LoginHistoryRepository appends immutable login attempt records.
type LoginHistoryRepository interface {
	// Record appends one attempt. Entries are never updated or deleted
	// by business flows.
	Record(ctx context.Context, attempt *entity.LoginAttempt) error

	// FindRecentByAccountID returns the most recent attempts for an
	// account, newest first, up to limit. Used by the suspicious-login
	// heuristic and the security settings screen.
	FindRecentByAccountID(ctx context.Context, accountID uuid.UUID, limit int) ([]*entity.LoginAttempt, error)
}
