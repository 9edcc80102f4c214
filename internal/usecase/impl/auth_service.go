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

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// twoFactorTicketTTL bounds the pause between the password step and the
// code step of a two-factor login.
const twoFactorTicketTTL = 5 * time.Minute

// authService implements the AuthUsecase interface.
type authService struct {
	txManager     repository.TransactionManager
	accountRepo   repository.AccountRepository
	twoFactorRepo repository.TwoFactorRepository
	historyRepo   repository.LoginHistoryRepository
	tokenRepo     repository.SecurityTokenRepository
	hasher        service.PasswordHasher
	codec         service.TokenCodec
	totp          service.TOTPService
	backupCodes   service.BackupCodeService
	limiter       service.RateLimiter
	stateStore    service.StateStore
	mailer        service.Mailer
	audit         usecase.AuditUsecase
	finalizer     *loginFinalizer
	lockout       config.LockoutConfig
	verifyTTL     time.Duration
	logger        *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	AccountRepo   repository.AccountRepository
	TwoFactorRepo repository.TwoFactorRepository
	HistoryRepo   repository.LoginHistoryRepository
	TokenRepo     repository.SecurityTokenRepository
	Hasher        service.PasswordHasher
	Codec         service.TokenCodec
	TOTP          service.TOTPService
	BackupCodes   service.BackupCodeService
	Limiter       service.RateLimiter
	StateStore    service.StateStore
	Mailer        service.Mailer
	Audit         usecase.AuditUsecase
	DeviceParser  service.DeviceParser
	Config        *config.Config
	Logger        *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:     params.TxManager,
		accountRepo:   params.AccountRepo,
		twoFactorRepo: params.TwoFactorRepo,
		historyRepo:   params.HistoryRepo,
		tokenRepo:     params.TokenRepo,
		hasher:        params.Hasher,
		codec:         params.Codec,
		totp:          params.TOTP,
		backupCodes:   params.BackupCodes,
		limiter:       params.Limiter,
		stateStore:    params.StateStore,
		mailer:        params.Mailer,
		audit:         params.Audit,
		finalizer: &loginFinalizer{
			txManager:       params.TxManager,
			historyRepo:     params.HistoryRepo,
			codec:           params.Codec,
			deviceParser:    params.DeviceParser,
			limiter:         params.Limiter,
			mailer:          params.Mailer,
			audit:           params.Audit,
			sessionLifetime: params.Config.Auth.SessionLifetime,
			logger:          params.Logger,
		},
		lockout:   params.Config.Lockout,
		verifyTTL: params.Config.Auth.VerifyTokenTTL,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a password account and mails the verification link.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	if err := srv.hasher.ValidateStrength(input.Password); err != nil {
		return nil, err
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	role := input.Role
	if role == "" {
		role = entity.RoleAgent
	}

	account := &entity.Account{
		TenantID:     input.TenantID,
		Email:        input.Email,
		Name:         input.Name,
		Role:         role,
		PasswordHash: hash,
	}

	var rawVerifyToken string
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.AccountRepo().Create(ctx, account); err != nil {
			return err
		}

		raw, digest, err := srv.codec.Issue()
		if err != nil {
			return errors.Wrap(err, "failed to issue verification token")
		}
		rawVerifyToken = raw

		return repoFactory.TokenRepo().Replace(ctx, &entity.SecurityToken{
			AccountID: account.ID,
			Purpose:   entity.TokenPurposeVerifyEmail,
			Digest:    digest,
			ExpiresAt: time.Now().Add(srv.verifyTTL),
		})
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	if err := srv.mailer.SendEmailVerification(ctx, account.Email, rawVerifyToken); err != nil {
		srv.log(ctx).Warn("Failed to send verification email", slog.String("email", account.Email), slog.Any("error", err))
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionRegister,
		EntityType: "account",
		EntityID:   &account.ID,
		After:      map[string]any{"email": account.Email, "role": string(account.Role)},
		Client:     input.Client,
	})

	return &usecase.RegisterOutput{Account: account}, nil
}

// Login authenticates with email and password. Accounts with two-factor
// enabled get a short-lived ticket instead of a session.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	if err := srv.limiter.Allow(ctx, service.RateActionLogin, input.Email); err != nil {
		return nil, err
	}

	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		srv.recordAttempt(ctx, nil, input.Email, false, entity.LoginFailureUnknownEmail, input.Client)

		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find account")
	}

	now := time.Now()
	if account.LockedAt(now) {
		srv.recordAttempt(ctx, &account.ID, input.Email, false, entity.LoginFailureAccountLocked, input.Client)

		return nil, domainerrors.ErrAccountLocked
	}
	// A lapsed lock clears on sight, so a wrong password after the cooldown
	// counts from zero instead of instantly re-locking.
	if account.ClearExpiredLock(now) {
		if err := srv.accountRepo.Update(ctx, account); err != nil {
			srv.log(ctx).Warn("Failed to persist lockout clear", slog.Any("accountID", account.ID), slog.Any("error", err))
		}
	}

	if !account.HasPassword() || !srv.hasher.Check(input.Password, account.PasswordHash) {
		return nil, srv.handleFailedPassword(ctx, account, input)
	}

	credential, err := srv.twoFactorRepo.Get(ctx, account.ID)
	if err != nil && !errors.Is(err, repository.ErrTwoFactorNotFound) {
		return nil, errors.Wrap(err, "failed to load two-factor credential")
	}
	if credential != nil && credential.Enabled {
		ticket, err := srv.issueTwoFactorTicket(ctx, account.ID)
		if err != nil {
			return nil, err
		}

		return &usecase.LoginOutput{TwoFactorRequired: true, TwoFactorTicket: ticket}, nil
	}

	return srv.finalizer.finalize(ctx, account, input.Client, entity.AuditActionLogin)
}

// CompleteTwoFactorLogin finishes a login paused for a second factor.
func (srv *authService) CompleteTwoFactorLogin(ctx context.Context, input usecase.TwoFactorLoginInput) (*usecase.LoginOutput, error) {
	if err := srv.limiter.Allow(ctx, service.RateActionTwoFactorVerify, input.Ticket); err != nil {
		return nil, err
	}

	accountID, err := srv.resolveTwoFactorTicket(ctx, input.Ticket)
	if err != nil {
		return nil, err
	}

	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, domainerrors.ErrTokenInvalid
	}

	credential, err := srv.twoFactorRepo.Get(ctx, account.ID)
	if err != nil || !credential.Enabled {
		return nil, domainerrors.ErrTwoFactorNotConfigured
	}

	ok, usedBackup, err := srv.checkSecondFactor(ctx, account.ID, credential.Secret, input.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		srv.recordAttempt(ctx, &account.ID, account.Email, false, entity.LoginFailureTwoFactor, input.Client)

		return nil, domainerrors.ErrTwoFactorInvalid
	}

	if err := srv.stateStore.Delete(ctx, twoFactorTicketKey(input.Ticket)); err != nil {
		srv.log(ctx).Warn("Failed to consume two-factor ticket", slog.Any("error", err))
	}

	if usedBackup {
		srv.audit.Record(ctx, usecase.AuditRecordInput{
			TenantID:   account.TenantID,
			ActorID:    &account.ID,
			Action:     entity.AuditActionBackupCodeUsed,
			EntityType: "account",
			EntityID:   &account.ID,
			Client:     input.Client,
		})
	}

	return srv.finalizer.finalize(ctx, account, input.Client, entity.AuditActionLogin)
}

// Logout ends the presented session.
func (srv *authService) Logout(ctx context.Context, session *entity.Session, account *entity.Account, client usecase.ClientInfo) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.SessionRepo().Delete(ctx, session.ID)
	})
	if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return errors.Wrap(err, "failed to delete session")
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionLogout,
		EntityType: "session",
		EntityID:   &session.ID,
		Client:     client,
	})

	return nil
}

// ChangePassword rotates the password from an authenticated session and
// revokes every other session.
func (srv *authService) ChangePassword(ctx context.Context, input usecase.ChangePasswordInput) error {
	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		return errors.Wrap(err, "failed to find account")
	}

	if !account.HasPassword() || !srv.hasher.Check(input.CurrentPassword, account.PasswordHash) {
		return domainerrors.ErrInvalidCredentials
	}

	if err := srv.validateNewPassword(account, input.NewPassword); err != nil {
		return err
	}

	newHash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		account.RememberPassword()
		account.PasswordHash = newHash
		if err := repoFactory.AccountRepo().Update(ctx, account); err != nil {
			return err
		}

		_, err := repoFactory.SessionRepo().DeleteByAccountID(ctx, account.ID, &input.CurrentSessionID)

		return err
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute password change transaction", slog.Any("accountID", account.ID), slog.Any("error", err))

		return err
	}

	if err := srv.mailer.SendSecurityAlert(ctx, account.Email, service.AlertPasswordChanged, map[string]string{
		"ip": input.Client.IPAddress,
	}); err != nil {
		srv.log(ctx).Warn("Failed to send password change alert", slog.Any("error", err))
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionPasswordChange,
		EntityType: "account",
		EntityID:   &account.ID,
		Client:     input.Client,
	})

	return nil
}

// --- Internal helpers ---

// handleFailedPassword counts the failure and locks the account when the
// threshold is crossed. The caller always sees a generic credential error.
func (srv *authService) handleFailedPassword(ctx context.Context, account *entity.Account, input usecase.LoginInput) error {
	account.FailedLogins++

	locked := account.FailedLogins >= srv.lockout.Threshold
	if locked {
		until := time.Now().Add(srv.lockout.Cooldown)
		account.LockedUntil = &until
	}

	if err := srv.accountRepo.Update(ctx, account); err != nil {
		srv.log(ctx).Error("Failed to persist login failure", slog.Any("accountID", account.ID), slog.Any("error", err))
	}

	srv.recordAttempt(ctx, &account.ID, input.Email, false, entity.LoginFailureBadCredentials, input.Client)

	if locked {
		srv.log(ctx).Warn("Account locked after repeated failures", slog.Any("accountID", account.ID))

		srv.audit.Record(ctx, usecase.AuditRecordInput{
			TenantID:   account.TenantID,
			ActorID:    nil,
			Action:     entity.AuditActionLockout,
			EntityType: "account",
			EntityID:   &account.ID,
			After:      map[string]any{"failedLogins": account.FailedLogins},
			Client:     input.Client,
		})

		if err := srv.mailer.SendSecurityAlert(ctx, account.Email, service.AlertAccountLocked, map[string]string{
			"ip": input.Client.IPAddress,
		}); err != nil {
			srv.log(ctx).Warn("Failed to send lockout alert", slog.Any("error", err))
		}
	}

	return domainerrors.ErrInvalidCredentials
}

func (srv *authService) recordAttempt(ctx context.Context, accountID *uuid.UUID, email string, success bool, reason string, client usecase.ClientInfo) {
	err := srv.historyRepo.Record(ctx, &entity.LoginAttempt{
		AccountID:     accountID,
		Email:         email,
		Success:       success,
		FailureReason: reason,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to record login attempt", slog.String("email", email), slog.Any("error", err))
	}
}

func twoFactorTicketKey(ticket string) string {
	return "2fa:login:" + ticket
}

func (srv *authService) issueTwoFactorTicket(ctx context.Context, accountID uuid.UUID) (string, error) {
	raw, _, err := srv.codec.Issue()
	if err != nil {
		return "", errors.Wrap(err, "failed to issue two-factor ticket")
	}

	if err := srv.stateStore.Set(ctx, twoFactorTicketKey(raw), accountID.String(), twoFactorTicketTTL.Milliseconds()); err != nil {
		return "", errors.Wrap(err, "failed to store two-factor ticket")
	}

	return raw, nil
}

func (srv *authService) resolveTwoFactorTicket(ctx context.Context, ticket string) (uuid.UUID, error) {
	value, ok, err := srv.stateStore.Get(ctx, twoFactorTicketKey(ticket))
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to load two-factor ticket")
	}
	if !ok {
		return uuid.Nil, domainerrors.ErrTokenInvalid
	}

	accountID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, domainerrors.ErrTokenInvalid
	}

	return accountID, nil
}

// checkSecondFactor accepts either a TOTP code or a backup code. Backup
// codes are consumed atomically so each works exactly once.
func (srv *authService) checkSecondFactor(ctx context.Context, accountID uuid.UUID, secret, code string) (ok bool, usedBackup bool, err error) {
	ok, err = srv.totp.VerifyCode(secret, code, time.Now())
	if err != nil {
		return false, false, errors.Wrap(err, "failed to verify totp code")
	}
	if ok {
		return true, false, nil
	}

	digests, err := srv.twoFactorRepo.ListBackupCodeDigests(ctx, accountID)
	if err != nil {
		return false, false, errors.Wrap(err, "failed to list backup codes")
	}

	digest, matched := srv.backupCodes.Match(code, digests)
	if !matched {
		return false, false, nil
	}

	consumed, err := srv.twoFactorRepo.ConsumeBackupCode(ctx, accountID, digest)
	if err != nil {
		return false, false, errors.Wrap(err, "failed to consume backup code")
	}

	return consumed, consumed, nil
}

func (srv *authService) validateNewPassword(account *entity.Account, newPassword string) error {
	if err := srv.hasher.ValidateStrength(newPassword); err != nil {
		return err
	}

	if srv.hasher.Check(newPassword, account.PasswordHash) {
		return domainerrors.ErrPasswordReused
	}
	for _, oldHash := range account.PasswordHistory {
		if srv.hasher.Check(newPassword, oldHash) {
			return domainerrors.ErrPasswordReused
		}
	}

	return nil
}
