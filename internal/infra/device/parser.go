// Package device derives the session device fingerprint from the
// User-Agent header.
package device

import (
	"github.com/mileusna/useragent"

	"atrium/internal/domain/entity"
	"atrium/internal/domain/service"
)

type parser struct{}

// NewParser returns the User-Agent based device parser.
func NewParser() service.DeviceParser {
	return parser{}
}

// Parse extracts browser, operating system and device class. Unknown or
// empty agents yield "unknown" fields rather than an error so logins from
// exotic clients still record a session.
func (parser) Parse(userAgent string) entity.DeviceInfo {
	ua := useragent.Parse(userAgent)

	info := entity.DeviceInfo{
		Browser:    ua.Name,
		OS:         ua.OS,
		DeviceType: "desktop",
	}

	switch {
	case ua.Mobile:
		info.DeviceType = "mobile"
	case ua.Tablet:
		info.DeviceType = "tablet"
	case ua.Bot:
		info.DeviceType = "bot"
	}

	if info.Browser == "" {
		info.Browser = "unknown"
	}
	if info.OS == "" {
		info.OS = "unknown"
	}
	if userAgent == "" {
		info.DeviceType = "unknown"
	}

	return info
}
