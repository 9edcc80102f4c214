// Package totp implements the RFC 6238 time-based one-time-password engine
// backing two-factor authentication, plus the single-use backup codes.
package totp

import (
	"crypto/rand"
	"encoding/base32"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"

	"atrium/config"
	"atrium/internal/domain/service"
)

const secretBytes = 20

type totpService struct {
	issuer string
	digits int
	period int
	skew   int
}

// NewTOTPService builds the engine from configuration. Authenticator apps
// expect HMAC-SHA1 with 6 digits and a 30 second period; the values are
// configurable mostly for tests.
func NewTOTPService(cfg config.TOTPConfig) service.TOTPService {
	return &totpService{
		issuer: cfg.Issuer,
		digits: cfg.Digits,
		period: cfg.Period,
		skew:   cfg.Skew,
	}
}

// GenerateSecret returns a fresh 20-byte shared secret, base32 without padding.
func (s *totpService) GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)

	return enc.EncodeToString(raw), nil
}

// ProvisionURI renders the otpauth:// enrollment URI for authenticator apps.
func (s *totpService) ProvisionURI(secret, account string) string {
	label := url.PathEscape(s.issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", s.issuer)
	v.Set("period", strconv.Itoa(s.period))
	v.Set("digits", strconv.Itoa(s.digits))
	v.Set("algorithm", "SHA1")

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// VerifyCode checks a candidate code against the secret at the given instant,
// tolerating the configured number of time steps of drift in each direction.
// Malformed codes are a plain mismatch, not an error.
func (s *totpService) VerifyCode(secret, code string, at time.Time) (bool, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != s.digits || !isNumeric(trimmed) {
		return false, nil
	}

	ok, err := pqtotp.ValidateCustom(trimmed, strings.ToUpper(secret), at, pqtotp.ValidateOpts{
		Period:    uint(s.period),
		Skew:      uint(s.skew),
		Digits:    otp.Digits(s.digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, errors.Wrap(err, "validate totp code")
	}

	return ok, nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return len(s) > 0
}
