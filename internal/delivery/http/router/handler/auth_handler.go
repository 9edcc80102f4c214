package handler

import (
	"log/slog"
	"net/http"

	"atrium/internal/delivery/http/response"
	"atrium/internal/domain/entity"
	"atrium/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for registration and login handlers.
type AuthHandler struct {
	uc     usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, logger: logger}
}

type registerRequest struct {
	TenantID string `json:"tenant_id" validate:"required,uuid4"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin agent viewer"`
}

// Register handles the account registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid tenant id")
	}

	role := entity.Role(req.Role)
	if role == "" {
		role = entity.RoleAgent
	}

	output, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		TenantID: tenantID,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     role,
		Client:   clientInfo(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newAccountView(output.Account), "Account registered, verification email sent")
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles the password login request. When the account has two-factor
// enabled the reply carries a short-lived ticket instead of a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Client:   clientInfo(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if output.TwoFactorRequired {
		return response.Success(c, http.StatusOK, map[string]any{
			"two_factor_required": true,
			"ticket":              output.TwoFactorTicket,
		}, "Two-factor code required")
	}

	return response.Success(c, http.StatusOK, newLoginView(output.SessionToken, output.Session, output.Account), "Login successful")
}

type twoFactorLoginRequest struct {
	Ticket string `json:"ticket" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

// CompleteTwoFactorLogin finishes a login paused for a second factor.
func (h *AuthHandler) CompleteTwoFactorLogin(c echo.Context) error {
	var req twoFactorLoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid two-factor input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.CompleteTwoFactorLogin(c.Request().Context(), usecase.TwoFactorLoginInput{
		Ticket: req.Ticket,
		Code:   req.Code,
		Client: clientInfo(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newLoginView(output.SessionToken, output.Session, output.Account), "Login successful")
}

// Logout ends the calling session.
func (h *AuthHandler) Logout(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}
	session, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	if err := h.uc.Logout(c.Request().Context(), session, account, clientInfo(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Logout successful")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// ChangePassword rotates the password of the calling account. Every other
// session is revoked; the calling one survives.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}
	session, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid change password input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	err := h.uc.ChangePassword(c.Request().Context(), usecase.ChangePasswordInput{
		AccountID:        account.ID,
		CurrentPassword:  req.CurrentPassword,
		NewPassword:      req.NewPassword,
		CurrentSessionID: session.ID,
		Client:           clientInfo(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password changed")
}
