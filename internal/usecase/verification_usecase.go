package usecase

import "context"

// VerificationUsecase defines the email verification business operations.
//
// ResendVerification is enumeration-safe like RequestReset: unknown and
// already-verified emails get the same success reply.
type VerificationUsecase interface {
	VerifyEmail(ctx context.Context, token string, client ClientInfo) error
	ResendVerification(ctx context.Context, email string, client ClientInfo) error
}
