package middleware

import (
	"net/http"
	"strings"

	"atrium/internal/domain/entity"
	"atrium/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Context keys set by Authenticate for downstream handlers.
const (
	ContextKeyAccount      = "account"
	ContextKeySession      = "session"
	ContextKeySessionToken = "sessionToken"
)

// AuthMiddleware resolves bearer session tokens to accounts.
type AuthMiddleware struct {
	sessions usecase.SessionUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(sessions usecase.SessionUsecase) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate validates the Authorization bearer token against the session
// store and sets the account and session on the request context. Every
// failure maps to the same 401 so token probing learns nothing.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authorization header is missing"})
		}

		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		if rawToken == authHeader {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token format, must be Bearer token"})
		}

		account, session, err := m.sessions.Validate(c.Request().Context(), rawToken)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired session"})
		}

		c.Set(ContextKeyAccount, account)
		c.Set(ContextKeySession, session)
		c.Set(ContextKeySessionToken, rawToken)

		return next(c)
	}
}

// RequireRole gates a route to accounts holding the given role.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(requiredRole entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, ok := c.Get(ContextKeyAccount).(*entity.Account)
			if !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Permission denied: account information missing"})
			}

			if account.Role != requiredRole {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Permission denied: require '" + string(requiredRole) + "' role"})
			}

			return next(c)
		}
	}
}
