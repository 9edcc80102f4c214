// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"atrium/internal/domain/entity"

	"github.com/google/uuid"
)

// ClientInfo carries the request origin recorded on sessions, login
// history and audit entries.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	TenantID uuid.UUID
	Email    string
	Name     string
	Password string
	Role     entity.Role
	Client   ClientInfo
}

// LoginInput defines the data required for an account to log in.
type LoginInput struct {
	Email    string
	Password string
	Client   ClientInfo
}

// TwoFactorLoginInput completes a login that was paused for a second factor.
// Ticket is the opaque value returned by the first step; Code is either a
// TOTP code or a backup code.
type TwoFactorLoginInput struct {
	Ticket string
	Code   string
	Client ClientInfo
}

// ChangePasswordInput defines the data required to change a password from
// an authenticated session.
type ChangePasswordInput struct {
	AccountID       uuid.UUID
	CurrentPassword string
	NewPassword     string
	// CurrentSessionID survives the revoke-all that follows the change.
	CurrentSessionID uuid.UUID
	Client           ClientInfo
}

// --- Output DTOs ---

// RegisterOutput returns the newly created account's basic information.
type RegisterOutput struct {
	Account *entity.Account
}

// LoginOutput returns the session after a successful login, or the
// two-factor ticket when a second step is required.
type LoginOutput struct {
	TwoFactorRequired bool
	// TwoFactorTicket is set only when TwoFactorRequired is true.
	TwoFactorTicket string
	// SessionToken is the raw bearer token, handed out exactly once.
	SessionToken string
	Session      *entity.Session
	Account      *entity.Account
}

// AuthUsecase defines the interface for registration and login business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input LoginInput) (*LoginOutput, error)
	CompleteTwoFactorLogin(ctx context.Context, input TwoFactorLoginInput) (*LoginOutput, error)
	Logout(ctx context.Context, session *entity.Session, account *entity.Account, client ClientInfo) error
	ChangePassword(ctx context.Context, input ChangePasswordInput) error
}
