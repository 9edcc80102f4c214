// Package handler contains the HTTP handlers for the application.
package handler

import (
	"net/http"
	"time"

	"atrium/internal/delivery/http/middleware"
	"atrium/internal/delivery/http/response"
	"atrium/internal/domain/entity"
	"atrium/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// clientInfo captures the request origin passed to every usecase.
func clientInfo(c echo.Context) usecase.ClientInfo {
	return usecase.ClientInfo{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// currentAccount returns the account set by the auth middleware.
func currentAccount(c echo.Context) (*entity.Account, bool) {
	account, ok := c.Get(middleware.ContextKeyAccount).(*entity.Account)

	return account, ok
}

// currentSession returns the session set by the auth middleware.
func currentSession(c echo.Context) (*entity.Session, bool) {
	session, ok := c.Get(middleware.ContextKeySession).(*entity.Session)

	return session, ok
}

// accountView is the account shape returned to clients. Password material
// and the OAuth subject never leave the service.
type accountView struct {
	ID            uuid.UUID           `json:"id"`
	TenantID      uuid.UUID           `json:"tenant_id"`
	Email         string              `json:"email"`
	Name          string              `json:"name"`
	Role          entity.Role         `json:"role"`
	EmailVerified bool                `json:"email_verified"`
	OAuthProvider entity.ProviderType `json:"oauth_provider,omitempty"`
	LastLoginAt   *time.Time          `json:"last_login_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func newAccountView(account *entity.Account) accountView {
	return accountView{
		ID:            account.ID,
		TenantID:      account.TenantID,
		Email:         account.Email,
		Name:          account.Name,
		Role:          account.Role,
		EmailVerified: account.EmailVerified,
		OAuthProvider: account.OAuthProvider,
		LastLoginAt:   account.LastLoginAt,
		CreatedAt:     account.CreatedAt,
	}
}

// sessionView is the session shape returned by login and listing endpoints.
// The token digest stays server-side.
type sessionView struct {
	ID             uuid.UUID `json:"id"`
	Browser        string    `json:"browser,omitempty"`
	OS             string    `json:"os,omitempty"`
	DeviceType     string    `json:"device_type,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	Current        bool      `json:"current,omitempty"`
}

func newSessionView(session *entity.Session) sessionView {
	return sessionView{
		ID:             session.ID,
		Browser:        session.Device.Browser,
		OS:             session.Device.OS,
		DeviceType:     session.Device.DeviceType,
		IPAddress:      session.IPAddress,
		LastActivityAt: session.LastActivityAt,
		ExpiresAt:      session.ExpiresAt,
		CreatedAt:      session.CreatedAt,
	}
}

// loginView is the payload for every endpoint that ends in a live session.
type loginView struct {
	SessionToken string      `json:"session_token"`
	Session      sessionView `json:"session"`
	Account      accountView `json:"account"`
}

func newLoginView(token string, session *entity.Session, account *entity.Account) loginView {
	return loginView{
		SessionToken: token,
		Session:      newSessionView(session),
		Account:      newAccountView(account),
	}
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
