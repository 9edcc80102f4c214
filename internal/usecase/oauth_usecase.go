package usecase

import (
	"context"

	"atrium/internal/domain/entity"

	"github.com/google/uuid"
)

// OAuthCallbackOutput is the result of an OAuth callback or a completed
// link. Exactly one of the two shapes is populated: a session (login or
// silent link succeeded) or a link ticket (explicit confirmation needed).
type OAuthCallbackOutput struct {
	LinkRequired bool
	// LinkTicket must be presented to CompleteLink together with the
	// account password.
	LinkTicket   string
	SessionToken string
	Session      *entity.Session
	Account      *entity.Account
}

// CompleteLinkInput confirms a pending link with the account's password.
type CompleteLinkInput struct {
	Ticket   string
	Password string
	Client   ClientInfo
}

// UnlinkInput removes a linked provider. Password proves the caller can
// still sign in without it; NewPassword is required instead when the
// account has no password yet and becomes its password atomically.
type UnlinkInput struct {
	AccountID   uuid.UUID
	Password    string
	NewPassword string
	Client      ClientInfo
}

// OAuthProviderStatus reports one provider's link state for an account.
type OAuthProviderStatus struct {
	Provider entity.ProviderType
	Linked   bool
}

// OAuthUsecase defines the external identity business operations.
type OAuthUsecase interface {
	// AuthorizationURL starts the consent round-trip. A non-nil accountID
	// marks the flow as an explicit link for that signed-in account.
	AuthorizationURL(ctx context.Context, provider entity.ProviderType, accountID *uuid.UUID) (string, error)

	// HandleCallback consumes the state parameter, exchanges the code and
	// either signs the caller in (provisioning an OAuth-only account on
	// first contact), demands an explicit link confirmation for an email
	// match, or completes a link started by a signed-in account.
	HandleCallback(ctx context.Context, provider entity.ProviderType, state, code string, client ClientInfo) (*OAuthCallbackOutput, error)

	// CompleteLink joins the pending external identity to its account
	// after the password checks out, then signs the caller in.
	CompleteLink(ctx context.Context, input CompleteLinkInput) (*OAuthCallbackOutput, error)

	// Unlink detaches the provider. An account without a password must
	// supply a new one in the same call; no account is ever left with
	// neither credential.
	Unlink(ctx context.Context, input UnlinkInput) error

	// Status lists the link state of every supported provider.
	Status(ctx context.Context, accountID uuid.UUID) ([]*OAuthProviderStatus, error)
}
