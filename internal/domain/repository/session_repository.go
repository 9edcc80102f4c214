package repository

import (
	"context"
	"errors"
	"time"

	"atrium/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for session persistence.
var (
	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session exists but is past its expiry.
	ErrSessionExpired = errors.New("session has expired")
)

// SessionRepository persists one record per logged-in device.
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *entity.Session) error

	// FindByDigest retrieves a session by its stored token digest.
	// Implementations return ErrSessionExpired for rows past expiry and
	// delete them eagerly.
	FindByDigest(ctx context.Context, tokenDigest string) (*entity.Session, error)

	// FindByID retrieves a session by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)

	// FindByAccountID retrieves all non-expired sessions for an account,
	// newest first.
	FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entity.Session, error)

	// Touch refreshes the last-activity timestamp of a session.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes a session by ID, ending that device's login.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByAccountID removes all sessions for an account. When keep is
	// non-nil the session with that ID survives.
	DeleteByAccountID(ctx context.Context, accountID uuid.UUID, keep *uuid.UUID) (int, error)

	// DeleteExpired removes all sessions past expiry, returning the count.
	DeleteExpired(ctx context.Context) (int, error)
}
