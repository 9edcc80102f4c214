// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"atrium/internal/delivery/http/middleware"
	"atrium/internal/delivery/http/router/handler"
	"atrium/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	PasswordHandler     *handler.PasswordHandler
	VerificationHandler *handler.VerificationHandler
	TwoFactorHandler    *handler.TwoFactorHandler
	SessionHandler      *handler.SessionHandler
	OAuthHandler        *handler.OAuthHandler
	AuditHandler        *handler.AuditHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	params RouterParams
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{params: params}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	v1 := e.Group("/api/v1")

	// Public authentication routes
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", r.params.AuthHandler.Register)
		authGroup.POST("/login", r.params.AuthHandler.Login)
		authGroup.POST("/login/2fa", r.params.AuthHandler.CompleteTwoFactorLogin)

		authGroup.POST("/password/forgot", r.params.PasswordHandler.Forgot)
		authGroup.GET("/password/reset/:token", r.params.PasswordHandler.CheckResetToken)
		authGroup.POST("/password/reset", r.params.PasswordHandler.Reset)

		authGroup.POST("/email/verify", r.params.VerificationHandler.Verify)
		authGroup.POST("/email/resend", r.params.VerificationHandler.Resend)

		authGroup.GET("/oauth/:provider", r.params.OAuthHandler.Authorize)
		authGroup.GET("/oauth/:provider/callback", r.params.OAuthHandler.Callback)
		authGroup.POST("/oauth/link/complete", r.params.OAuthHandler.CompleteLink)
	}

	// Account routes that require an authenticated session
	accountGroup := v1.Group("/account")
	accountGroup.Use(r.params.AuthMiddleware.Authenticate)
	{
		accountGroup.POST("/logout", r.params.AuthHandler.Logout)
		accountGroup.POST("/password", r.params.AuthHandler.ChangePassword)

		accountGroup.GET("/sessions", r.params.SessionHandler.List)
		accountGroup.DELETE("/sessions/:id", r.params.SessionHandler.Revoke)
		accountGroup.DELETE("/sessions", r.params.SessionHandler.RevokeAll)

		accountGroup.POST("/2fa/setup", r.params.TwoFactorHandler.Setup)
		accountGroup.POST("/2fa/verify", r.params.TwoFactorHandler.Verify)
		accountGroup.DELETE("/2fa", r.params.TwoFactorHandler.Disable)
		accountGroup.GET("/2fa", r.params.TwoFactorHandler.Status)

		accountGroup.GET("/oauth", r.params.OAuthHandler.Status)
		accountGroup.GET("/oauth/:provider/link", r.params.OAuthHandler.AuthorizeLink)
		accountGroup.DELETE("/oauth", r.params.OAuthHandler.Unlink)
	}

	// Audit routes require authentication and the "admin" role
	auditGroup := v1.Group("/audit")
	auditGroup.Use(r.params.AuthMiddleware.Authenticate)
	auditGroup.Use(r.params.AuthMiddleware.RequireRole(entity.RoleAdmin))
	{
		auditGroup.GET("", r.params.AuditHandler.List)
		auditGroup.GET("/export", r.params.AuditHandler.Export)
	}
}
