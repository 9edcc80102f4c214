package mocks

import (
	"context"

	"atrium/internal/domain/entity"
	"atrium/internal/domain/repository"

	"github.com/google/uuid"
)

// MockTwoFactorRepository implements repository.TwoFactorRepository for testing.
type MockTwoFactorRepository struct {
	GetFunc                   func(ctx context.Context, accountID uuid.UUID) (*entity.TwoFactorCredential, error)
	SaveFunc                  func(ctx context.Context, credential *entity.TwoFactorCredential) error
	DeleteFunc                func(ctx context.Context, accountID uuid.UUID) error
	ReplaceBackupCodesFunc    func(ctx context.Context, accountID uuid.UUID, digests []string) error
	ListBackupCodeDigestsFunc func(ctx context.Context, accountID uuid.UUID) ([]string, error)
	ConsumeBackupCodeFunc     func(ctx context.Context, accountID uuid.UUID, digest string) (bool, error)
}

// NewMockTwoFactorRepository creates a MockTwoFactorRepository with default behaviors.
func NewMockTwoFactorRepository() *MockTwoFactorRepository {
	return &MockTwoFactorRepository{}
}

func (m *MockTwoFactorRepository) Get(ctx context.Context, accountID uuid.UUID) (*entity.TwoFactorCredential, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, accountID)
	}
	// Default behavior: no enrollment
	return nil, repository.ErrTwoFactorNotFound
}

func (m *MockTwoFactorRepository) Save(ctx context.Context, credential *entity.TwoFactorCredential) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, credential)
	}
	// Default behavior: success
	return nil
}

func (m *MockTwoFactorRepository) Delete(ctx context.Context, accountID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, accountID)
	}
	// Default behavior: success
	return nil
}

func (m *MockTwoFactorRepository) ReplaceBackupCodes(ctx context.Context, accountID uuid.UUID, digests []string) error {
	if m.ReplaceBackupCodesFunc != nil {
		return m.ReplaceBackupCodesFunc(ctx, accountID, digests)
	}
	// Default behavior: success
	return nil
}

func (m *MockTwoFactorRepository) ListBackupCodeDigests(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	if m.ListBackupCodeDigestsFunc != nil {
		return m.ListBackupCodeDigestsFunc(ctx, accountID)
	}
	// Default behavior: no codes
	return nil, nil
}

func (m *MockTwoFactorRepository) ConsumeBackupCode(ctx context.Context, accountID uuid.UUID, digest string) (bool, error) {
	if m.ConsumeBackupCodeFunc != nil {
		return m.ConsumeBackupCodeFunc(ctx, accountID, digest)
	}
	// Default behavior: consumed
	return true, nil
}
