package handler

import (
	"log/slog"
	"net/http"

	"atrium/internal/delivery/http/response"
	"atrium/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SessionHandler holds dependencies for the session management handlers.
type SessionHandler struct {
	uc     usecase.SessionUsecase
	logger *slog.Logger
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(uc usecase.SessionUsecase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{uc: uc, logger: logger}
}

// List returns the calling account's active sessions, newest first.
func (h *SessionHandler) List(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}
	session, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	infos, err := h.uc.List(c.Request().Context(), account.ID, session.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]sessionView, 0, len(infos))
	for _, info := range infos {
		view := newSessionView(info.Session)
		view.Current = info.Current
		views = append(views, view)
	}

	return response.Success(c, http.StatusOK, map[string]any{"sessions": views}, "")
}

// Revoke ends one of the calling account's sessions.
func (h *SessionHandler) Revoke(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid session id")
	}

	if err := h.uc.Revoke(c.Request().Context(), account, sessionID, clientInfo(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Session revoked")
}

// RevokeAll ends every session of the calling account except the current one.
func (h *SessionHandler) RevokeAll(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}
	session, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	// The calling session survives unless the client opts out of keeping it.
	keep := &session.ID
	if c.QueryParam("keep_current") == "false" {
		keep = nil
	}

	revoked, err := h.uc.RevokeAll(c.Request().Context(), account, keep, clientInfo(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]int{"revoked": revoked}, "Sessions revoked")
}
