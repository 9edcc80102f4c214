package mocks

import (
	"context"

	"atrium/internal/domain/repository"
)

// MockRepositoryFactory hands out the mock repositories inside a fake
// transaction. Fill only the fields the code under test touches.
type MockRepositoryFactory struct {
	Accounts  *MockAccountRepository
	Tokens    *MockSecurityTokenRepository
	TwoFactor *MockTwoFactorRepository
	Sessions  *MockSessionRepository
	History   *MockLoginHistoryRepository
	Audit     *MockAuditRepository
}

// NewMockRepositoryFactory creates a factory with all mocks pre-populated.
func NewMockRepositoryFactory() *MockRepositoryFactory {
	return &MockRepositoryFactory{
		Accounts:  NewMockAccountRepository(),
		Tokens:    NewMockSecurityTokenRepository(),
		TwoFactor: NewMockTwoFactorRepository(),
		Sessions:  NewMockSessionRepository(),
		History:   NewMockLoginHistoryRepository(),
		Audit:     NewMockAuditRepository(),
	}
}

func (f *MockRepositoryFactory) AccountRepo() repository.AccountRepository { return f.Accounts }

func (f *MockRepositoryFactory) TokenRepo() repository.SecurityTokenRepository { return f.Tokens }

func (f *MockRepositoryFactory) TwoFactorRepo() repository.TwoFactorRepository { return f.TwoFactor }

func (f *MockRepositoryFactory) SessionRepo() repository.SessionRepository { return f.Sessions }

func (f *MockRepositoryFactory) LoginHistoryRepo() repository.LoginHistoryRepository {
	return f.History
}

func (f *MockRepositoryFactory) AuditRepo() repository.AuditRepository { return f.Audit }

// MockTransactionManager implements repository.TransactionManager for
// testing. It runs the function against the factory with no real
// transaction semantics.
type MockTransactionManager struct {
	Factory     *MockRepositoryFactory
	ExecuteFunc func(ctx context.Context, fn func(repository.RepositoryFactory) error) error
}

// NewMockTransactionManager creates a manager backed by the given factory.
func NewMockTransactionManager(factory *MockRepositoryFactory) *MockTransactionManager {
	return &MockTransactionManager{Factory: factory}
}

func (m *MockTransactionManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, fn)
	}
	// Default behavior: run against the shared factory
	return fn(m.Factory)
}
