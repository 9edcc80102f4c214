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

// verificationService implements the VerificationUsecase interface.
type verificationService struct {
	txManager   repository.TransactionManager
	accountRepo repository.AccountRepository
	tokenRepo   repository.SecurityTokenRepository
	codec       service.TokenCodec
	limiter     service.RateLimiter
	mailer      service.Mailer
	audit       usecase.AuditUsecase
	verifyTTL   time.Duration
	logger      *slog.Logger
}

// VerificationServiceParams holds dependencies for VerificationService, injected by Fx.
type VerificationServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	AccountRepo repository.AccountRepository
	TokenRepo   repository.SecurityTokenRepository
	Codec       service.TokenCodec
	Limiter     service.RateLimiter
	Mailer      service.Mailer
	Audit       usecase.AuditUsecase
	Config      *config.Config
	Logger      *slog.Logger
}

// NewVerificationService is the constructor for verificationService.
func NewVerificationService(params VerificationServiceParams) usecase.VerificationUsecase {
	return &verificationService{
		txManager:   params.TxManager,
		accountRepo: params.AccountRepo,
		tokenRepo:   params.TokenRepo,
		codec:       params.Codec,
		limiter:     params.Limiter,
		mailer:      params.Mailer,
		audit:       params.Audit,
		verifyTTL:   params.Config.Auth.VerifyTokenTTL,
		logger:      params.Logger,
	}
}

func (srv *verificationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// VerifyEmail consumes a verification token and marks the email verified.
func (srv *verificationService) VerifyEmail(ctx context.Context, rawToken string, client usecase.ClientInfo) error {
	digest, err := srv.codec.Digest(rawToken)
	if err != nil {
		return domainerrors.ErrTokenMalformed
	}

	token, err := srv.tokenRepo.FindByDigest(ctx, entity.TokenPurposeVerifyEmail, digest)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return domainerrors.ErrTokenInvalid
	}
	if err != nil {
		return errors.Wrap(err, "failed to find verification token")
	}
	if token.ExpiredAt(time.Now()) {
		_ = srv.tokenRepo.Delete(ctx, token.ID)

		return domainerrors.ErrTokenInvalid
	}

	account, err := srv.accountRepo.FindByID(ctx, token.AccountID)
	if err != nil {
		return errors.Wrap(err, "failed to find account")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.TokenRepo().Delete(ctx, token.ID); err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				return domainerrors.ErrTokenInvalid
			}

			return err
		}

		account.EmailVerified = true

		return repoFactory.AccountRepo().Update(ctx, account)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute email verification transaction", slog.Any("accountID", account.ID), slog.Any("error", err))

		return err
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionEmailVerified,
		EntityType: "account",
		EntityID:   &account.ID,
		Client:     client,
	})

	return nil
}

// ResendVerification issues a fresh verification token. Unknown and
// already-verified emails return the same silent success.
func (srv *verificationService) ResendVerification(ctx context.Context, email string, client usecase.ClientInfo) error {
	if err := srv.limiter.Allow(ctx, service.RateActionResendVerification, email); err != nil {
		return err
	}

	account, err := srv.accountRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		srv.log(ctx).Info("Verification resend requested for unknown email", slog.String("email", email))

		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to find account")
	}
	if account.EmailVerified {
		return nil
	}

	raw, digest, err := srv.codec.Issue()
	if err != nil {
		return errors.Wrap(err, "failed to issue verification token")
	}

	err = srv.tokenRepo.Replace(ctx, &entity.SecurityToken{
		AccountID: account.ID,
		Purpose:   entity.TokenPurposeVerifyEmail,
		Digest:    digest,
		ExpiresAt: time.Now().Add(srv.verifyTTL),
	})
	if err != nil {
		return errors.Wrap(err, "failed to store verification token")
	}

	if err := srv.mailer.SendEmailVerification(ctx, account.Email, raw); err != nil {
		srv.log(ctx).Warn("Failed to send verification email", slog.String("email", account.Email), slog.Any("error", err))
	}

	return nil
}
