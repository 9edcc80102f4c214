package handler

import (
	"log/slog"
	"net/http"
	"time"

	"atrium/internal/delivery/http/response"
	"atrium/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// TwoFactorHandler holds dependencies for the TOTP enrollment handlers.
type TwoFactorHandler struct {
	uc     usecase.TwoFactorUsecase
	logger *slog.Logger
}

// NewTwoFactorHandler is the constructor for TwoFactorHandler, injected by Fx.
func NewTwoFactorHandler(uc usecase.TwoFactorUsecase, logger *slog.Logger) *TwoFactorHandler {
	return &TwoFactorHandler{uc: uc, logger: logger}
}

// Setup starts a TOTP enrollment. The secret and QR code are shown once.
func (h *TwoFactorHandler) Setup(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	output, err := h.uc.Setup(c.Request().Context(), account.ID, clientInfo(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"secret":           output.Secret,
		"provision_uri":    output.ProvisionURI,
		"qr_code_data_uri": output.QRCodeDataURI,
	}, "Scan the QR code, then confirm with a code")
}

type twoFactorVerifyRequest struct {
	Code string `json:"code" validate:"required"`
}

// Verify confirms a pending enrollment. The backup codes in the reply are
// shown exactly once.
func (h *TwoFactorHandler) Verify(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	var req twoFactorVerifyRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Verify(c.Request().Context(), account.ID, req.Code, clientInfo(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"backup_codes": output.BackupCodes,
	}, "Two-factor authentication enabled, store the backup codes safely")
}

type twoFactorDisableRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Disable turns two-factor authentication off after proof of ownership.
func (h *TwoFactorHandler) Disable(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	var req twoFactorDisableRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid input")
	}

	err := h.uc.Disable(c.Request().Context(), usecase.DisableTwoFactorInput{
		AccountID: account.ID,
		Password:  req.Password,
		Code:      req.Code,
		Client:    clientInfo(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Two-factor authentication disabled")
}

type twoFactorStatusView struct {
	Enabled              bool       `json:"enabled"`
	Pending              bool       `json:"pending"`
	RemainingBackupCodes int        `json:"remaining_backup_codes"`
	VerifiedAt           *time.Time `json:"verified_at,omitempty"`
}

// Status reports the calling account's enrollment state.
func (h *TwoFactorHandler) Status(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	output, err := h.uc.Status(c.Request().Context(), account.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, twoFactorStatusView{
		Enabled:              output.Enabled,
		Pending:              output.Pending,
		RemainingBackupCodes: output.RemainingBackupCodes,
		VerifiedAt:           output.VerifiedAt,
	}, "")
}
