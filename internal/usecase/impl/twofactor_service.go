package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "atrium/internal/delivery/context"
	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/repository"
	"atrium/internal/domain/service"
	"atrium/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// twoFactorService implements the TwoFactorUsecase interface.
type twoFactorService struct {
	txManager     repository.TransactionManager
	accountRepo   repository.AccountRepository
	twoFactorRepo repository.TwoFactorRepository
	hasher        service.PasswordHasher
	totp          service.TOTPService
	backupCodes   service.BackupCodeService
	qrCodes       service.QRCodeService
	limiter       service.RateLimiter
	audit         usecase.AuditUsecase
	logger        *slog.Logger
}

// TwoFactorServiceParams holds dependencies for TwoFactorService, injected by Fx.
type TwoFactorServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	AccountRepo   repository.AccountRepository
	TwoFactorRepo repository.TwoFactorRepository
	Hasher        service.PasswordHasher
	TOTP          service.TOTPService
	BackupCodes   service.BackupCodeService
	QRCodes       service.QRCodeService
	Limiter       service.RateLimiter
	Audit         usecase.AuditUsecase
	Logger        *slog.Logger
}

// NewTwoFactorService is the constructor for twoFactorService.
func NewTwoFactorService(params TwoFactorServiceParams) usecase.TwoFactorUsecase {
	return &twoFactorService{
		txManager:     params.TxManager,
		accountRepo:   params.AccountRepo,
		twoFactorRepo: params.TwoFactorRepo,
		hasher:        params.Hasher,
		totp:          params.TOTP,
		backupCodes:   params.BackupCodes,
		qrCodes:       params.QRCodes,
		limiter:       params.Limiter,
		audit:         params.Audit,
		logger:        params.Logger,
	}
}

func (srv *twoFactorService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Setup starts TOTP enrollment. Repeating setup before verification rotates
// the pending secret; an enabled credential must be disabled first.
func (srv *twoFactorService) Setup(ctx context.Context, accountID uuid.UUID, client usecase.ClientInfo) (*usecase.TwoFactorSetupOutput, error) {
	if err := srv.limiter.Allow(ctx, service.RateActionTwoFactorSetup, accountID.String()); err != nil {
		return nil, err
	}

	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find account")
	}

	credential, err := srv.twoFactorRepo.Get(ctx, accountID)
	if err != nil && !errors.Is(err, repository.ErrTwoFactorNotFound) {
		return nil, errors.Wrap(err, "failed to load two-factor credential")
	}
	if credential != nil && credential.Enabled {
		return nil, domainerrors.ErrTwoFactorAlreadyEnabled
	}

	secret, err := srv.totp.GenerateSecret()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate totp secret")
	}

	err = srv.twoFactorRepo.Save(ctx, &entity.TwoFactorCredential{
		AccountID: accountID,
		Secret:    secret,
		Enabled:   false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to save pending credential")
	}

	uri := srv.totp.ProvisionURI(secret, account.Email)
	qr, err := srv.qrCodes.DataURI(uri)
	if err != nil {
		srv.log(ctx).Warn("Failed to render enrollment QR code", slog.Any("accountID", accountID), slog.Any("error", err))
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionTwoFactorSetup,
		EntityType: "account",
		EntityID:   &account.ID,
		Client:     client,
	})

	return &usecase.TwoFactorSetupOutput{
		Secret:        secret,
		ProvisionURI:  uri,
		QRCodeDataURI: qr,
	}, nil
}

// Verify confirms enrollment with a first valid code, enabling the
// credential and issuing the backup codes.
func (srv *twoFactorService) Verify(ctx context.Context, accountID uuid.UUID, code string, client usecase.ClientInfo) (*usecase.TwoFactorVerifyOutput, error) {
	if err := srv.limiter.Allow(ctx, service.RateActionTwoFactorVerify, accountID.String()); err != nil {
		return nil, err
	}

	credential, err := srv.twoFactorRepo.Get(ctx, accountID)
	if errors.Is(err, repository.ErrTwoFactorNotFound) {
		return nil, domainerrors.ErrTwoFactorNotConfigured
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load two-factor credential")
	}
	if credential.Enabled {
		return nil, domainerrors.ErrTwoFactorAlreadyEnabled
	}

	ok, err := srv.totp.VerifyCode(credential.Secret, code, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify totp code")
	}
	if !ok {
		return nil, domainerrors.ErrTwoFactorInvalid
	}

	plain, digests, err := srv.backupCodes.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate backup codes")
	}

	now := time.Now()
	credential.Enabled = true
	credential.VerifiedAt = &now

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.TwoFactorRepo().Save(ctx, credential); err != nil {
			return err
		}

		return repoFactory.TwoFactorRepo().ReplaceBackupCodes(ctx, accountID, digests)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute two-factor enable transaction", slog.Any("accountID", accountID), slog.Any("error", err))

		return nil, err
	}

	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err == nil {
		srv.audit.Record(ctx, usecase.AuditRecordInput{
			TenantID:   account.TenantID,
			ActorID:    &account.ID,
			Action:     entity.AuditActionTwoFactorEnabled,
			EntityType: "account",
			EntityID:   &account.ID,
			Client:     client,
		})
	}

	return &usecase.TwoFactorVerifyOutput{BackupCodes: plain}, nil
}

// Disable turns two-factor off. The caller proves possession with a
// currently valid TOTP or backup code; the account password works as an
// alternative proof.
func (srv *twoFactorService) Disable(ctx context.Context, input usecase.DisableTwoFactorInput) error {
	if err := srv.limiter.Allow(ctx, service.RateActionTwoFactorDisable, input.AccountID.String()); err != nil {
		return err
	}

	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		return errors.Wrap(err, "failed to find account")
	}

	credential, err := srv.twoFactorRepo.Get(ctx, input.AccountID)
	if errors.Is(err, repository.ErrTwoFactorNotFound) {
		return domainerrors.ErrTwoFactorNotConfigured
	}
	if err != nil {
		return errors.Wrap(err, "failed to load two-factor credential")
	}

	if err := srv.proveDisable(ctx, account, credential, input); err != nil {
		return err
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.TwoFactorRepo().Delete(ctx, input.AccountID)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute two-factor disable transaction", slog.Any("accountID", input.AccountID), slog.Any("error", err))

		return err
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionTwoFactorDisabled,
		EntityType: "account",
		EntityID:   &account.ID,
		Client:     input.Client,
	})

	return nil
}

// Status reports the account's enrollment state.
func (srv *twoFactorService) Status(ctx context.Context, accountID uuid.UUID) (*usecase.TwoFactorStatusOutput, error) {
	credential, err := srv.twoFactorRepo.Get(ctx, accountID)
	if errors.Is(err, repository.ErrTwoFactorNotFound) {
		return &usecase.TwoFactorStatusOutput{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load two-factor credential")
	}

	out := &usecase.TwoFactorStatusOutput{
		Enabled:    credential.Enabled,
		Pending:    credential.Pending(),
		VerifiedAt: credential.VerifiedAt,
	}
	if credential.Enabled {
		digests, err := srv.twoFactorRepo.ListBackupCodeDigests(ctx, accountID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list backup codes")
		}
		out.RemainingBackupCodes = len(digests)
	}

	return out, nil
}

// proveDisable checks the possession proof for turning two-factor off. A
// submitted code is tried first as TOTP, then as a backup code; the account
// password serves as the remaining proof.
func (srv *twoFactorService) proveDisable(ctx context.Context, account *entity.Account, credential *entity.TwoFactorCredential, input usecase.DisableTwoFactorInput) error {
	if input.Code != "" {
		ok, err := srv.proveWithCode(ctx, account.ID, credential.Secret, input.Code)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	if account.HasPassword() && input.Password != "" && srv.hasher.Check(input.Password, account.PasswordHash) {
		return nil
	}

	if input.Code != "" {
		return domainerrors.ErrTwoFactorInvalid
	}
	if account.HasPassword() {
		return domainerrors.ErrInvalidCredentials
	}

	return domainerrors.ErrTwoFactorInvalid
}

func (srv *twoFactorService) proveWithCode(ctx context.Context, accountID uuid.UUID, secret, code string) (bool, error) {
	ok, err := srv.totp.VerifyCode(secret, code, time.Now())
	if err != nil {
		return false, errors.Wrap(err, "failed to verify totp code")
	}
	if ok {
		return true, nil
	}

	digests, err := srv.twoFactorRepo.ListBackupCodeDigests(ctx, accountID)
	if err != nil {
		return false, errors.Wrap(err, "failed to list backup codes")
	}
	digest, matched := srv.backupCodes.Match(code, digests)
	if !matched {
		return false, nil
	}

	consumed, err := srv.twoFactorRepo.ConsumeBackupCode(ctx, accountID, digest)
	if err != nil {
		return false, errors.Wrap(err, "failed to consume backup code")
	}

	return consumed, nil
}
