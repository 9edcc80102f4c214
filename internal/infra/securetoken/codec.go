// Package securetoken implements the opaque bearer tokens used for sessions,
// password resets and email verification. Tokens carry 32 bytes of CSPRNG
// entropy rendered as 64 hex characters; only their SHA-256 digest is stored.
package securetoken

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/pkg/errors"

	"atrium/internal/domain/service"
)

const rawByteLen = 32

// ErrMalformedToken is returned when a presented token does not have the
// expected fixed-length hex shape.
var ErrMalformedToken = errors.New("securetoken: malformed token")

type codec struct{}

// NewCodec returns the standard token codec.
func NewCodec() service.TokenCodec {
	return codec{}
}

// Issue generates a fresh raw token and its storage digest.
func (codec) Issue() (string, string, error) {
	buf := make([]byte, rawByteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "read random bytes")
	}

	raw := hex.EncodeToString(buf)
	sum := sha256.Sum256([]byte(raw))

	return raw, hex.EncodeToString(sum[:]), nil
}

// Digest recomputes the storage digest for a presented raw token. Malformed
// input is rejected before any store lookup happens.
func (codec) Digest(raw string) (string, error) {
	if len(raw) != rawByteLen*2 {
		return "", ErrMalformedToken
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", ErrMalformedToken
	}

	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:]), nil
}

// Verify reports whether a raw token matches a stored digest.
func (c codec) Verify(raw, digest string) bool {
	computed, err := c.Digest(raw)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
