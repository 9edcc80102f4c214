// Package mail implements outbound security email. The default
// implementation writes structured log records instead of delivering,
// which is what development and test environments run with; production
// wires a real transport behind the same interface.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"atrium/internal/domain/service"
)

type logMailer struct {
	logger  *slog.Logger
	baseURL string
}

// NewLogMailer returns a Mailer that records messages on the service log.
// baseURL is the public origin used to build reset and verification links.
func NewLogMailer(logger *slog.Logger, baseURL string) service.Mailer {
	return &logMailer{logger: logger, baseURL: baseURL}
}

func (m *logMailer) SendPasswordReset(ctx context.Context, email, rawToken string) error {
	m.logger.InfoContext(ctx, "password reset email",
		slog.String("to", email),
		slog.String("link", fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, rawToken)),
	)

	return nil
}

func (m *logMailer) SendEmailVerification(ctx context.Context, email, rawToken string) error {
	m.logger.InfoContext(ctx, "email verification email",
		slog.String("to", email),
		slog.String("link", fmt.Sprintf("%s/verify-email?token=%s", m.baseURL, rawToken)),
	)

	return nil
}

func (m *logMailer) SendSecurityAlert(ctx context.Context, email string, kind service.SecurityAlertKind, meta map[string]string) error {
	attrs := []any{
		slog.String("to", email),
		slog.String("kind", string(kind)),
	}
	for k, v := range meta {
		attrs = append(attrs, slog.String(k, v))
	}
	m.logger.InfoContext(ctx, "security alert email", attrs...)

	return nil
}
