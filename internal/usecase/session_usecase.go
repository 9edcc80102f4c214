package usecase

import (
	"context"

	"atrium/internal/domain/entity"

	"github.com/google/uuid"
)

// SessionInfo is one listed session, flagged when it is the caller's own.
type SessionInfo struct {
	Session *entity.Session
	Current bool
}

// SessionUsecase defines the session management business operations.
type SessionUsecase interface {
	// Validate resolves a raw bearer token to its session and account,
	// touching the session's last-activity timestamp. Invalid, expired
	// and malformed tokens all map to ErrSessionInvalid.
	Validate(ctx context.Context, rawToken string) (*entity.Account, *entity.Session, error)

	// List returns the account's active sessions, newest first.
	List(ctx context.Context, accountID, currentSessionID uuid.UUID) ([]*SessionInfo, error)

	// Revoke ends one session. The session must belong to the account.
	Revoke(ctx context.Context, account *entity.Account, sessionID uuid.UUID, client ClientInfo) error

	// RevokeAll ends every session of the account except keep (when
	// non-nil), returning the number revoked.
	RevokeAll(ctx context.Context, account *entity.Account, keep *uuid.UUID, client ClientInfo) (int, error)

	// Sweep deletes expired sessions and stale security tokens. Run
	// periodically in the background.
	Sweep(ctx context.Context) (int, error)
}
