package handler

import (
	"log/slog"
	"net/http"

	"atrium/internal/delivery/http/response"
	"atrium/internal/domain/entity"
	"atrium/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// OAuthHandler holds dependencies for the external identity handlers.
type OAuthHandler struct {
	uc     usecase.OAuthUsecase
	logger *slog.Logger
}

// NewOAuthHandler is the constructor for OAuthHandler, injected by Fx.
func NewOAuthHandler(uc usecase.OAuthUsecase, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{uc: uc, logger: logger}
}

// Authorize starts the provider consent round-trip for sign-in.
func (h *OAuthHandler) Authorize(c echo.Context) error {
	provider := entity.ProviderType(c.Param("provider"))

	oauthURL, err := h.uc.AuthorizationURL(c.Request().Context(), provider, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	// Redirect directly unless the frontend wants the URL itself.
	if c.QueryParam("redirect") == "true" {
		return c.Redirect(http.StatusTemporaryRedirect, oauthURL)
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"authorization_url": oauthURL,
	}, "Authorization URL generated")
}

// AuthorizeLink starts the consent round-trip to link a provider to the
// signed-in account.
func (h *OAuthHandler) AuthorizeLink(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	provider := entity.ProviderType(c.Param("provider"))

	oauthURL, err := h.uc.AuthorizationURL(c.Request().Context(), provider, &account.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	if c.QueryParam("redirect") == "true" {
		return c.Redirect(http.StatusTemporaryRedirect, oauthURL)
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"authorization_url": oauthURL,
	}, "Authorization URL generated")
}

// Callback consumes the provider redirect. Depending on what the external
// identity resolves to, the reply is a session, a link ticket demanding
// confirmation, or the linked-account view for an explicit link flow.
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider := entity.ProviderType(c.Param("provider"))

	if errParam := c.QueryParam("error"); errParam != "" {
		return response.BadRequest(c, "OAUTH_DENIED", "Provider reported: "+errParam)
	}

	state := c.QueryParam("state")
	code := c.QueryParam("code")
	if state == "" || code == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Missing state or code parameter")
	}

	output, err := h.uc.HandleCallback(c.Request().Context(), provider, state, code, clientInfo(c))
	if err != nil {
		return errors.WithStack(err)
	}

	switch {
	case output.LinkRequired:
		return response.Success(c, http.StatusOK, map[string]any{
			"link_required": true,
			"link_ticket":   output.LinkTicket,
		}, "Account exists, confirm the link with your password")
	case output.Session != nil:
		return response.Success(c, http.StatusOK, newLoginView(output.SessionToken, output.Session, output.Account), "Login successful")
	default:
		// Explicit link flows end without a new session.
		return response.Success(c, http.StatusOK, map[string]any{
			"account": newAccountView(output.Account),
		}, "Provider linked")
	}
}

type completeLinkRequest struct {
	Ticket   string `json:"ticket" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CompleteLink confirms a pending link with the account password and signs
// the caller in.
func (h *OAuthHandler) CompleteLink(c echo.Context) error {
	var req completeLinkRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.CompleteLink(c.Request().Context(), usecase.CompleteLinkInput{
		Ticket:   req.Ticket,
		Password: req.Password,
		Client:   clientInfo(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newLoginView(output.SessionToken, output.Session, output.Account), "Provider linked, login successful")
}

type unlinkRequest struct {
	// Password proves possession for password accounts; NewPassword is the
	// replacement credential an OAuth-only account must set instead.
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

// Unlink detaches the linked provider from the calling account.
func (h *OAuthHandler) Unlink(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	var req unlinkRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid input")
	}

	err := h.uc.Unlink(c.Request().Context(), usecase.UnlinkInput{
		AccountID:   account.ID,
		Password:    req.Password,
		NewPassword: req.NewPassword,
		Client:      clientInfo(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Provider unlinked")
}

// Status lists the link state of every configured provider.
func (h *OAuthHandler) Status(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Not authenticated")
	}

	statuses, err := h.uc.Status(c.Request().Context(), account.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	providers := make([]map[string]any, 0, len(statuses))
	for _, status := range statuses {
		providers = append(providers, map[string]any{
			"provider": status.Provider,
			"linked":   status.Linked,
		})
	}

	return response.Success(c, http.StatusOK, map[string]any{"providers": providers}, "")
}
