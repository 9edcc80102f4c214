package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/delivery/http/middleware"
	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/usecase"
)

// stubSessions satisfies usecase.SessionUsecase with a single canned token.
type stubSessions struct {
	token   string
	account *entity.Account
	session *entity.Session
}

func (s *stubSessions) Validate(_ context.Context, rawToken string) (*entity.Account, *entity.Session, error) {
	if rawToken == s.token {
		return s.account, s.session, nil
	}

	return nil, nil, domainerrors.ErrSessionInvalid
}

func (s *stubSessions) List(context.Context, uuid.UUID, uuid.UUID) ([]*usecase.SessionInfo, error) {
	return nil, nil
}

func (s *stubSessions) Revoke(context.Context, *entity.Account, uuid.UUID, usecase.ClientInfo) error {
	return nil
}

func (s *stubSessions) RevokeAll(context.Context, *entity.Account, *uuid.UUID, usecase.ClientInfo) (int, error) {
	return 0, nil
}

func (s *stubSessions) Sweep(context.Context) (int, error) {
	return 0, nil
}

func newAuthFixture(role entity.Role) (*middleware.AuthMiddleware, *stubSessions) {
	account := &entity.Account{ID: uuid.New(), Role: role}
	sessions := &stubSessions{
		token:   "valid-session-token",
		account: account,
		session: &entity.Session{ID: uuid.New(), AccountID: account.ID},
	}

	return middleware.NewAuthMiddleware(sessions), sessions
}

func invoke(t *testing.T, handler echo.HandlerFunc, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler(c))

	return rec
}

func TestAuthenticate(t *testing.T) {
	m, sessions := newAuthFixture(entity.RoleAgent)

	next := func(c echo.Context) error {
		account, ok := c.Get(middleware.ContextKeyAccount).(*entity.Account)
		require.True(t, ok)
		assert.Equal(t, sessions.account.ID, account.ID)

		session, ok := c.Get(middleware.ContextKeySession).(*entity.Session)
		require.True(t, ok)
		assert.Equal(t, sessions.session.ID, session.ID)

		return c.NoContent(http.StatusOK)
	}

	t.Run("valid bearer token", func(t *testing.T) {
		rec := invoke(t, m.Authenticate(next), "Bearer valid-session-token")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := invoke(t, m.Authenticate(next), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		rec := invoke(t, m.Authenticate(next), "Basic dXNlcjpwdw==")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		rec := invoke(t, m.Authenticate(next), "Bearer someone-elses-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	t.Run("admin passes", func(t *testing.T) {
		m, _ := newAuthFixture(entity.RoleAdmin)
		handler := m.Authenticate(m.RequireRole(entity.RoleAdmin)(next))
		rec := invoke(t, handler, "Bearer valid-session-token")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("agent is refused", func(t *testing.T) {
		m, _ := newAuthFixture(entity.RoleAgent)
		handler := m.Authenticate(m.RequireRole(entity.RoleAdmin)(next))
		rec := invoke(t, handler, "Bearer valid-session-token")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("without authenticate", func(t *testing.T) {
		m, _ := newAuthFixture(entity.RoleAdmin)
		rec := invoke(t, m.RequireRole(entity.RoleAdmin)(next), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
