package handler

import (
	"log/slog"
	"net/http"

	"atrium/internal/delivery/http/response"
	"atrium/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PasswordHandler holds dependencies for the forgot-password handlers.
type PasswordHandler struct {
	uc     usecase.PasswordUsecase
	logger *slog.Logger
}

// NewPasswordHandler is the constructor for PasswordHandler, injected by Fx.
func NewPasswordHandler(uc usecase.PasswordUsecase, logger *slog.Logger) *PasswordHandler {
	return &PasswordHandler{uc: uc, logger: logger}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Forgot starts the reset flow. The reply is identical whether or not the
// email belongs to an account.
func (h *PasswordHandler) Forgot(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	err := h.uc.RequestReset(c.Request().Context(), usecase.RequestResetInput{
		Email:  req.Email,
		Client: clientInfo(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "If the email is registered, a reset link has been sent")
}

// CheckResetToken tells the frontend whether a reset link is still usable
// before it renders the form, and whose account it belongs to. The token
// is not consumed.
func (h *PasswordHandler) CheckResetToken(c echo.Context) error {
	email, err := h.uc.CheckResetToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"valid": true,
		"email": email,
	}, "")
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Reset consumes a reset token and sets the new password.
func (h *PasswordHandler) Reset(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	err := h.uc.ResetPassword(c.Request().Context(), usecase.ResetPasswordInput{
		Token:       req.Token,
		NewPassword: req.NewPassword,
		Client:      clientInfo(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password reset, please log in again")
}
