package oauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/service"
)

// linkTicketSigner implements service.LinkTicketSigner with HS256 JWTs so
// tickets stay stateless and survive instance failover.
type linkTicketSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewLinkTicketSigner builds the signer.
func NewLinkTicketSigner(secret string, ttl time.Duration) (service.LinkTicketSigner, error) {
	if secret == "" {
		return nil, errors.New("link ticket secret must be provided")
	}

	return &linkTicketSigner{secret: []byte(secret), ttl: ttl}, nil
}

// Sign mints a ticket token.
func (s *linkTicketSigner) Sign(link service.PendingLink, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":      link.AccountID.String(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
		"type":     "oauth_link",
		"provider": string(link.Provider),
		"oauthsub": link.Subject,
		"email":    link.Email,
		"name":     link.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// Verify parses a ticket token and returns the pending link it carries.
// Expired, malformed or foreign tokens all map to ErrOAuthStateInvalid.
func (s *linkTicketSigner) Verify(tokenString string) (*service.PendingLink, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domainerrors.ErrOAuthStateInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domainerrors.ErrOAuthStateInvalid
	}
	if typ, _ := claims["type"].(string); typ != "oauth_link" {
		return nil, domainerrors.ErrOAuthStateInvalid
	}

	sub, _ := claims["sub"].(string)
	accountID, err := uuid.Parse(sub)
	if err != nil {
		return nil, domainerrors.ErrOAuthStateInvalid
	}

	provider, _ := claims["provider"].(string)
	subject, _ := claims["oauthsub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if provider == "" || subject == "" {
		return nil, domainerrors.ErrOAuthStateInvalid
	}

	return &service.PendingLink{
		AccountID: accountID,
		Provider:  entity.ProviderType(provider),
		Subject:   subject,
		Email:     email,
		Name:      name,
	}, nil
}
