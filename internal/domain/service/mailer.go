package service

import "context"

// SecurityAlertKind labels the notification templates sent by security flows.
type SecurityAlertKind string

const (
	AlertAccountLocked   SecurityAlertKind = "account_locked"
	AlertSuspiciousLogin SecurityAlertKind = "suspicious_login"
	AlertPasswordChanged SecurityAlertKind = "password_changed"
)

// Mailer abstracts the outbound email capability. Delivery transport (SMTP,
// provider API) is an external collaborator; implementations only have to
// hand the message off.
type Mailer interface {
	// SendPasswordReset delivers the reset link carrying the raw token.
	SendPasswordReset(ctx context.Context, email, rawToken string) error

	// SendEmailVerification delivers the verification link.
	SendEmailVerification(ctx context.Context, email, rawToken string) error

	// SendSecurityAlert delivers a security notification. meta carries
	// template fields such as the origin address.
	SendSecurityAlert(ctx context.Context, email string, kind SecurityAlertKind, meta map[string]string) error
}
