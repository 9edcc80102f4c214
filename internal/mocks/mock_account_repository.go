// Package mocks provides hand-written test doubles for the repository and
// service interfaces. Each mock exposes one settable func field per method;
// unset fields fall back to a neutral default.
package mocks

import (
	"context"

	"atrium/internal/domain/entity"
	"atrium/internal/domain/repository"

	"github.com/google/uuid"
)

// MockAccountRepository implements repository.AccountRepository for testing.
type MockAccountRepository struct {
	FindByIDFunc              func(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	FindByEmailFunc           func(ctx context.Context, email string) (*entity.Account, error)
	FindByProviderSubjectFunc func(ctx context.Context, provider entity.ProviderType, subject string) (*entity.Account, error)
	CreateFunc                func(ctx context.Context, account *entity.Account) error
	UpdateFunc                func(ctx context.Context, account *entity.Account) error
}

// NewMockAccountRepository creates a MockAccountRepository with default behaviors.
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{}
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, repository.ErrAccountNotFound
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, repository.ErrAccountNotFound
}

func (m *MockAccountRepository) FindByProviderSubject(ctx context.Context, provider entity.ProviderType, subject string) (*entity.Account, error) {
	if m.FindByProviderSubjectFunc != nil {
		return m.FindByProviderSubjectFunc(ctx, provider, subject)
	}
	// Default behavior: not found
	return nil, repository.ErrAccountNotFound
}

func (m *MockAccountRepository) Create(ctx context.Context, account *entity.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	// Default behavior: assign an ID like the database would
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	return nil
}

func (m *MockAccountRepository) Update(ctx context.Context, account *entity.Account) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, account)
	}
	// Default behavior: success
	return nil
}
