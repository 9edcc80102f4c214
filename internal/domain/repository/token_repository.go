package repository

import (
	"context"
	"errors"

	"atrium/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrTokenNotFound is returned when no security token matches the lookup.
var ErrTokenNotFound = errors.New("security token not found")

// SecurityTokenRepository persists single-use reset and verification tokens.
type SecurityTokenRepository interface {
	// Replace stores a token, removing any previous token of the same
	// purpose for the same account. A new request overwrites the old one.
	Replace(ctx context.Context, token *entity.SecurityToken) error

	// FindByDigest retrieves a token by purpose and stored digest.
	FindByDigest(ctx context.Context, purpose entity.TokenPurpose, digest string) (*entity.SecurityToken, error)

	// Delete removes a token, consuming it. Returns ErrTokenNotFound when
	// the row is already gone, which callers treat as a lost race.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes all tokens past their expiry, returning the count.
	DeleteExpired(ctx context.Context) (int, error)
}
