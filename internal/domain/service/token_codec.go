package service

// TokenCodec generates and verifies opaque bearer tokens (password reset,
// email verification, session). The raw secret is a fixed-length hex string
// carrying at least 32 bytes of entropy; only its one-way digest is ever
// persisted.
type TokenCodec interface {
	// Issue generates a fresh raw token and its storage digest.
	Issue() (raw string, digest string, err error)

	// Digest recomputes the storage digest for a presented raw token.
	// It returns an error when the raw value does not have the expected
	// fixed-length hex shape, letting callers reject malformed input
	// before any store lookup.
	Digest(raw string) (string, error)

	// Verify reports whether a raw token matches a stored digest using a
	// constant-time comparison.
	Verify(raw string, digest string) bool
}
