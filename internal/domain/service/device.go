package service

import "atrium/internal/domain/entity"

// DeviceParser turns a raw User-Agent header into the device fingerprint
// stored on sessions and login history entries.
type DeviceParser interface {
	Parse(userAgent string) entity.DeviceInfo
}
