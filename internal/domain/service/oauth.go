package service

import (
	"context"
	"time"

	"atrium/internal/domain/entity"

	"github.com/google/uuid"
)

// ExternalIdentity is the profile a provider vouches for after a completed
// authorization-code exchange.
type ExternalIdentity struct {
	Provider      entity.ProviderType
	Subject       string // The provider's stable user identifier ('sub' claim).
	Email         string
	Name          string
	EmailVerified bool // Whether the provider claims the email is verified.
}

// OAuthProvider abstracts one external identity provider (Google, Microsoft).
type OAuthProvider interface {
	// Name returns the provider identifier used in routes and storage.
	Name() entity.ProviderType

	// AuthCodeURL builds the consent-screen redirect URL carrying the
	// CSRF state parameter.
	AuthCodeURL(state string) string

	// Exchange trades the authorization code for tokens and resolves the
	// external identity behind them.
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}

// PendingLink carries an account-link awaiting explicit confirmation: the
// callback matched an existing password account by email and the identities
// are joined only after that account's password is presented.
type PendingLink struct {
	AccountID uuid.UUID
	Provider  entity.ProviderType
	Subject   string
	Email     string
	Name      string
}

// LinkTicketSigner mints and verifies the signed tickets that carry a
// PendingLink across the confirmation round-trip.
type LinkTicketSigner interface {
	// Sign mints a ticket token for the pending link.
	Sign(link PendingLink, now time.Time) (string, error)

	// Verify parses a ticket token. Expired, malformed and foreign tokens
	// all map to ErrOAuthStateInvalid.
	Verify(token string) (*PendingLink, error)
}
