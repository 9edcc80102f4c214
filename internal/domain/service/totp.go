package service

import "time"

// TOTPService implements the time-based one-time-password algorithm used
// for two-factor authentication.
type TOTPService interface {
	// GenerateSecret returns a fresh shared secret, base32 without padding,
	// with at least 20 bytes of underlying entropy.
	GenerateSecret() (string, error)

	// ProvisionURI renders the otpauth:// enrollment URI for authenticator
	// apps, embedding issuer, account label, algorithm, digits and period.
	ProvisionURI(secret, account string) string

	// VerifyCode checks a candidate code against the secret at the given
	// instant, tolerating one time step of clock drift in either
	// direction. Comparison is constant-time.
	VerifyCode(secret, code string, at time.Time) (bool, error)
}

// BackupCodeService generates and matches single-use recovery codes.
type BackupCodeService interface {
	// Generate returns the plaintext codes (shown to the user exactly
	// once) and their storage digests, index-aligned.
	Generate() (plain []string, digests []string, err error)

	// Match finds the digest matching a candidate code among the stored
	// digests using constant-time comparison. Every stored digest is
	// compared regardless of earlier matches.
	Match(code string, digests []string) (digest string, ok bool)
}
