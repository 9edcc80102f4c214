package usecase

import "context"

// RequestResetInput starts the forgot-password flow.
type RequestResetInput struct {
	Email  string
	Client ClientInfo
}

// ResetPasswordInput consumes a reset token.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
	Client      ClientInfo
}

// PasswordUsecase defines the forgot-password business operations.
//
// RequestReset never reveals whether the email belongs to an account: the
// caller gets the same success reply either way.
type PasswordUsecase interface {
	RequestReset(ctx context.Context, input RequestResetInput) error

	// CheckResetToken reports whether a reset token is still usable, so a
	// frontend can validate the link before showing the form, and returns
	// the owning account's email. It does not consume the token.
	CheckResetToken(ctx context.Context, token string) (string, error)

	ResetPassword(ctx context.Context, input ResetPasswordInput) error
}
