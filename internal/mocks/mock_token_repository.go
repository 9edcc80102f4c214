package mocks

import (
	"context"

	"atrium/internal/domain/entity"
	"atrium/internal/domain/repository"

	"github.com/google/uuid"
)

// MockSecurityTokenRepository implements repository.SecurityTokenRepository for testing.
type MockSecurityTokenRepository struct {
	ReplaceFunc       func(ctx context.Context, token *entity.SecurityToken) error
	FindByDigestFunc  func(ctx context.Context, purpose entity.TokenPurpose, digest string) (*entity.SecurityToken, error)
	DeleteFunc        func(ctx context.Context, id uuid.UUID) error
	DeleteExpiredFunc func(ctx context.Context) (int, error)
}

// NewMockSecurityTokenRepository creates a MockSecurityTokenRepository with default behaviors.
func NewMockSecurityTokenRepository() *MockSecurityTokenRepository {
	return &MockSecurityTokenRepository{}
}

func (m *MockSecurityTokenRepository) Replace(ctx context.Context, token *entity.SecurityToken) error {
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, token)
	}
	// Default behavior: success
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	return nil
}

func (m *MockSecurityTokenRepository) FindByDigest(ctx context.Context, purpose entity.TokenPurpose, digest string) (*entity.SecurityToken, error) {
	if m.FindByDigestFunc != nil {
		return m.FindByDigestFunc(ctx, purpose, digest)
	}
	// Default behavior: not found
	return nil, repository.ErrTokenNotFound
}

func (m *MockSecurityTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	// Default behavior: success
	return nil
}

func (m *MockSecurityTokenRepository) DeleteExpired(ctx context.Context) (int, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	// Default behavior: nothing expired
	return 0, nil
}
