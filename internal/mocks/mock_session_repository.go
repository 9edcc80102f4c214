package mocks

import (
	"context"
	"time"

	"atrium/internal/domain/entity"
	"atrium/internal/domain/repository"

	"github.com/google/uuid"
)

// MockSessionRepository implements repository.SessionRepository for testing.
type MockSessionRepository struct {
	CreateFunc            func(ctx context.Context, session *entity.Session) error
	FindByDigestFunc      func(ctx context.Context, tokenDigest string) (*entity.Session, error)
	FindByIDFunc          func(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	FindByAccountIDFunc   func(ctx context.Context, accountID uuid.UUID) ([]*entity.Session, error)
	TouchFunc             func(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteFunc            func(ctx context.Context, id uuid.UUID) error
	DeleteByAccountIDFunc func(ctx context.Context, accountID uuid.UUID, keep *uuid.UUID) (int, error)
	DeleteExpiredFunc     func(ctx context.Context) (int, error)
}

// NewMockSessionRepository creates a MockSessionRepository with default behaviors.
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *entity.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	// Default behavior: assign an ID like the database would
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	return nil
}

func (m *MockSessionRepository) FindByDigest(ctx context.Context, tokenDigest string) (*entity.Session, error) {
	if m.FindByDigestFunc != nil {
		return m.FindByDigestFunc(ctx, tokenDigest)
	}
	// Default behavior: not found
	return nil, repository.ErrSessionNotFound
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, repository.ErrSessionNotFound
}

func (m *MockSessionRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entity.Session, error) {
	if m.FindByAccountIDFunc != nil {
		return m.FindByAccountIDFunc(ctx, accountID)
	}
	// Default behavior: no sessions
	return nil, nil
}

func (m *MockSessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, id, at)
	}
	// Default behavior: success
	return nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	// Default behavior: success
	return nil
}

func (m *MockSessionRepository) DeleteByAccountID(ctx context.Context, accountID uuid.UUID, keep *uuid.UUID) (int, error) {
	if m.DeleteByAccountIDFunc != nil {
		return m.DeleteByAccountIDFunc(ctx, accountID, keep)
	}
	// Default behavior: nothing deleted
	return 0, nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	// Default behavior: nothing expired
	return 0, nil
}
