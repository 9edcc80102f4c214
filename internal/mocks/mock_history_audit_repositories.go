package mocks

import (
	"context"
	"time"

	"atrium/internal/domain/entity"
	"atrium/internal/domain/repository"

	"github.com/google/uuid"
)

// MockLoginHistoryRepository implements repository.LoginHistoryRepository for testing.
type MockLoginHistoryRepository struct {
	RecordFunc                func(ctx context.Context, attempt *entity.LoginAttempt) error
	FindRecentByAccountIDFunc func(ctx context.Context, accountID uuid.UUID, limit int) ([]*entity.LoginAttempt, error)

	// Recorded collects every attempt passed to the default Record.
	Recorded []*entity.LoginAttempt
}

// NewMockLoginHistoryRepository creates a MockLoginHistoryRepository with default behaviors.
func NewMockLoginHistoryRepository() *MockLoginHistoryRepository {
	return &MockLoginHistoryRepository{}
}

func (m *MockLoginHistoryRepository) Record(ctx context.Context, attempt *entity.LoginAttempt) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, attempt)
	}
	// Default behavior: collect for assertions
	m.Recorded = append(m.Recorded, attempt)

	return nil
}

func (m *MockLoginHistoryRepository) FindRecentByAccountID(ctx context.Context, accountID uuid.UUID, limit int) ([]*entity.LoginAttempt, error) {
	if m.FindRecentByAccountIDFunc != nil {
		return m.FindRecentByAccountIDFunc(ctx, accountID, limit)
	}
	// Default behavior: no history
	return nil, nil
}

// MockAuditRepository implements repository.AuditRepository for testing.
type MockAuditRepository struct {
	CreateFunc          func(ctx context.Context, entry *entity.AuditEntry) error
	ListFunc            func(ctx context.Context, filter repository.AuditFilter) ([]*entity.AuditEntry, int64, error)
	DeleteOlderThanFunc func(ctx context.Context, cutoff time.Time) (int, error)

	// Created collects every entry passed to the default Create.
	Created []*entity.AuditEntry
}

// NewMockAuditRepository creates a MockAuditRepository with default behaviors.
func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	// Default behavior: collect for assertions
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.Created = append(m.Created, entry)

	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter repository.AuditFilter) ([]*entity.AuditEntry, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	// Default behavior: list what the default Create collected
	return m.Created, int64(len(m.Created)), nil
}

func (m *MockAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, cutoff)
	}
	// Default behavior: nothing deleted
	return 0, nil
}
