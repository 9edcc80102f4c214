package impl

import (
	"context"
	"log/slog"
	"time"

	"atrium/config"
	deliverycontext "atrium/internal/delivery/context"
	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/repository"
	"atrium/internal/domain/service"
	"atrium/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// passwordService implements the PasswordUsecase interface.
type passwordService struct {
	txManager   repository.TransactionManager
	accountRepo repository.AccountRepository
	tokenRepo   repository.SecurityTokenRepository
	hasher      service.PasswordHasher
	codec       service.TokenCodec
	limiter     service.RateLimiter
	mailer      service.Mailer
	audit       usecase.AuditUsecase
	resetTTL    time.Duration
	logger      *slog.Logger
}

// PasswordServiceParams holds dependencies for PasswordService, injected by Fx.
type PasswordServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	AccountRepo repository.AccountRepository
	TokenRepo   repository.SecurityTokenRepository
	Hasher      service.PasswordHasher
	Codec       service.TokenCodec
	Limiter     service.RateLimiter
	Mailer      service.Mailer
	Audit       usecase.AuditUsecase
	Config      *config.Config
	Logger      *slog.Logger
}

// NewPasswordService is the constructor for passwordService.
func NewPasswordService(params PasswordServiceParams) usecase.PasswordUsecase {
	return &passwordService{
		txManager:   params.TxManager,
		accountRepo: params.AccountRepo,
		tokenRepo:   params.TokenRepo,
		hasher:      params.Hasher,
		codec:       params.Codec,
		limiter:     params.Limiter,
		mailer:      params.Mailer,
		audit:       params.Audit,
		resetTTL:    params.Config.Auth.ResetTokenTTL,
		logger:      params.Logger,
	}
}

func (srv *passwordService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RequestReset issues a reset token and mails the link. Unknown emails get
// the same silent success so the endpoint cannot be used for enumeration.
func (srv *passwordService) RequestReset(ctx context.Context, input usecase.RequestResetInput) error {
	if err := srv.limiter.Allow(ctx, service.RateActionPasswordReset, input.Email); err != nil {
		return err
	}

	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		srv.log(ctx).Info("Password reset requested for unknown email", slog.String("email", input.Email))

		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to find account")
	}

	raw, digest, err := srv.codec.Issue()
	if err != nil {
		return errors.Wrap(err, "failed to issue reset token")
	}

	err = srv.tokenRepo.Replace(ctx, &entity.SecurityToken{
		AccountID: account.ID,
		Purpose:   entity.TokenPurposeReset,
		Digest:    digest,
		ExpiresAt: time.Now().Add(srv.resetTTL),
	})
	if err != nil {
		return errors.Wrap(err, "failed to store reset token")
	}

	if err := srv.mailer.SendPasswordReset(ctx, account.Email, raw); err != nil {
		srv.log(ctx).Warn("Failed to send reset email", slog.String("email", account.Email), slog.Any("error", err))
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		Action:     entity.AuditActionPasswordResetRequest,
		EntityType: "account",
		EntityID:   &account.ID,
		Client:     input.Client,
	})

	return nil
}

// CheckResetToken verifies a reset token without consuming it and returns
// the owning account's email. A well-formed token that is absent, consumed
// or past its expiry reports as expired; only a malformed one is invalid.
func (srv *passwordService) CheckResetToken(ctx context.Context, rawToken string) (string, error) {
	digest, err := srv.codec.Digest(rawToken)
	if err != nil {
		return "", domainerrors.ErrTokenMalformed
	}

	token, err := srv.tokenRepo.FindByDigest(ctx, entity.TokenPurposeReset, digest)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return "", domainerrors.ErrTokenExpired
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to find reset token")
	}
	if token.ExpiredAt(time.Now()) {
		return "", domainerrors.ErrTokenExpired
	}

	account, err := srv.accountRepo.FindByID(ctx, token.AccountID)
	if err != nil {
		return "", errors.Wrap(err, "failed to find account")
	}

	return account.Email, nil
}

// ResetPassword consumes a reset token, replaces the password and revokes
// every session of the account.
func (srv *passwordService) ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error {
	digest, err := srv.codec.Digest(input.Token)
	if err != nil {
		return domainerrors.ErrTokenMalformed
	}

	// A consumed token was deleted, so a replay lands in the not-found
	// branch and reports as expired, same as a genuine expiry.
	token, err := srv.tokenRepo.FindByDigest(ctx, entity.TokenPurposeReset, digest)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return domainerrors.ErrTokenExpired
	}
	if err != nil {
		return errors.Wrap(err, "failed to find reset token")
	}
	if token.ExpiredAt(time.Now()) {
		_ = srv.tokenRepo.Delete(ctx, token.ID)

		return domainerrors.ErrTokenExpired
	}

	account, err := srv.accountRepo.FindByID(ctx, token.AccountID)
	if err != nil {
		return errors.Wrap(err, "failed to find account")
	}

	if err := srv.hasher.ValidateStrength(input.NewPassword); err != nil {
		return err
	}
	if srv.passwordReused(account, input.NewPassword) {
		return domainerrors.ErrPasswordReused
	}

	newHash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		// Consuming the token first turns a concurrent double-reset into
		// a lost race for the second caller.
		if err := repoFactory.TokenRepo().Delete(ctx, token.ID); err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				return domainerrors.ErrTokenExpired
			}

			return err
		}

		account.RememberPassword()
		account.PasswordHash = newHash
		account.FailedLogins = 0
		account.LockedUntil = nil
		if err := repoFactory.AccountRepo().Update(ctx, account); err != nil {
			return err
		}

		_, err := repoFactory.SessionRepo().DeleteByAccountID(ctx, account.ID, nil)

		return err
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute password reset transaction", slog.Any("accountID", account.ID), slog.Any("error", err))

		return err
	}

	if err := srv.limiter.Reset(ctx, service.RateActionPasswordReset, account.Email); err != nil {
		srv.log(ctx).Warn("Failed to reset rate limit", slog.Any("error", err))
	}

	if err := srv.mailer.SendSecurityAlert(ctx, account.Email, service.AlertPasswordChanged, map[string]string{
		"ip": input.Client.IPAddress,
	}); err != nil {
		srv.log(ctx).Warn("Failed to send password change alert", slog.Any("error", err))
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionPasswordReset,
		EntityType: "account",
		EntityID:   &account.ID,
		Client:     input.Client,
	})

	return nil
}

func (srv *passwordService) passwordReused(account *entity.Account, newPassword string) bool {
	if account.HasPassword() && srv.hasher.Check(newPassword, account.PasswordHash) {
		return true
	}
	for _, oldHash := range account.PasswordHistory {
		if srv.hasher.Check(newPassword, oldHash) {
			return true
		}
	}

	return false
}
