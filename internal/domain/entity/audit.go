package entity

import (
	"time"

	"github.com/google/uuid"
)

// Audit action tags for security-relevant events.
const (
	AuditActionRegister             = "account.register"
	AuditActionLogin                = "account.login"
	AuditActionLoginFailed          = "account.login_failed"
	AuditActionLogout               = "account.logout"
	AuditActionLockout              = "account.lockout"
	AuditActionPasswordChange       = "account.password_change"
	AuditActionPasswordResetRequest = "account.password_reset_request"
	AuditActionPasswordReset        = "account.password_reset"
	AuditActionEmailVerified        = "account.email_verified"
	AuditActionTwoFactorSetup       = "twofactor.setup"
	AuditActionTwoFactorEnabled     = "twofactor.enabled"
	AuditActionTwoFactorDisabled    = "twofactor.disabled"
	AuditActionBackupCodeUsed       = "twofactor.backup_code_used"
	AuditActionOAuthLogin           = "oauth.login"
	AuditActionOAuthLinked          = "oauth.linked"
	AuditActionOAuthUnlinked        = "oauth.unlinked"
	AuditActionSessionRevoked       = "session.revoked"
	AuditActionSessionRevokedAll    = "session.revoked_all"
)

// AuditEntry is one append-only record of a security-relevant state change.
// Before and After are opaque snapshots serialized at the storage boundary;
// inside business logic they stay as typed maps.
type AuditEntry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ActorID    *uuid.UUID // nil for anonymous flows such as password reset requests.
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Before     map[string]any
	After      map[string]any
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}
