package entity

import (
	"time"

	"github.com/google/uuid"
)

// DeviceInfo is the parsed fingerprint of the client that opened a session.
type DeviceInfo struct {
	Browser    string // e.g. "Chrome", "Firefox"
	OS         string // e.g. "macOS", "Windows"
	DeviceType string // "desktop", "mobile", "tablet" or "unknown"
}

// Session represents one logged-in device. The raw bearer token is handed
// to the client exactly once; only its digest is persisted. A session past
// its expiry must be treated as absent.
type Session struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	TokenDigest    string // SHA-256 digest of the raw session token, hex encoded.
	Device         DeviceInfo
	IPAddress      string
	UserAgent      string
	LastActivityAt time.Time
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// ExpiredAt reports whether the session is past its expiry at the given instant.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
