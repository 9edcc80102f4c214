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

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	txManager   repository.TransactionManager
	accountRepo repository.AccountRepository
	sessionRepo repository.SessionRepository
	tokenRepo   repository.SecurityTokenRepository
	codec       service.TokenCodec
	audit       usecase.AuditUsecase
	logger      *slog.Logger
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	AccountRepo repository.AccountRepository
	SessionRepo repository.SessionRepository
	TokenRepo   repository.SecurityTokenRepository
	Codec       service.TokenCodec
	Audit       usecase.AuditUsecase
	Logger      *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		txManager:   params.TxManager,
		accountRepo: params.AccountRepo,
		sessionRepo: params.SessionRepo,
		tokenRepo:   params.TokenRepo,
		codec:       params.Codec,
		audit:       params.Audit,
		logger:      params.Logger,
	}
}

func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Validate resolves a raw bearer token to its session and account. Every
// failure mode collapses into the same generic error.
func (srv *sessionService) Validate(ctx context.Context, rawToken string) (*entity.Account, *entity.Session, error) {
	digest, err := srv.codec.Digest(rawToken)
	if err != nil {
		return nil, nil, domainerrors.ErrSessionInvalid
	}

	session, err := srv.sessionRepo.FindByDigest(ctx, digest)
	if errors.Is(err, repository.ErrSessionNotFound) || errors.Is(err, repository.ErrSessionExpired) {
		return nil, nil, domainerrors.ErrSessionInvalid
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to find session")
	}

	account, err := srv.accountRepo.FindByID(ctx, session.AccountID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, nil, domainerrors.ErrSessionInvalid
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to find account")
	}

	if err := srv.sessionRepo.Touch(ctx, session.ID, time.Now()); err != nil {
		srv.log(ctx).Warn("Failed to touch session", slog.Any("sessionID", session.ID), slog.Any("error", err))
	}

	return account, session, nil
}

// List returns the account's active sessions, flagging the caller's own.
func (srv *sessionService) List(ctx context.Context, accountID, currentSessionID uuid.UUID) ([]*usecase.SessionInfo, error) {
	sessions, err := srv.sessionRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}

	infos := make([]*usecase.SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, &usecase.SessionInfo{
			Session: session,
			Current: session.ID == currentSessionID,
		})
	}

	return infos, nil
}

// Revoke ends one session after an ownership check.
func (srv *sessionService) Revoke(ctx context.Context, account *entity.Account, sessionID uuid.UUID, client usecase.ClientInfo) error {
	session, err := srv.sessionRepo.FindByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return domainerrors.ErrSessionNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to find session")
	}
	if session.AccountID != account.ID {
		// Foreign sessions look absent so IDs cannot be probed.
		return domainerrors.ErrSessionNotFound
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.SessionRepo().Delete(ctx, sessionID)
	})
	if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return errors.Wrap(err, "failed to delete session")
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionSessionRevoked,
		EntityType: "session",
		EntityID:   &sessionID,
		Client:     client,
	})

	return nil
}

// RevokeAll ends every session of the account except keep.
func (srv *sessionService) RevokeAll(ctx context.Context, account *entity.Account, keep *uuid.UUID, client usecase.ClientInfo) (int, error) {
	var revoked int
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		revoked, err = repoFactory.SessionRepo().DeleteByAccountID(ctx, account.ID, keep)

		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete sessions")
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionSessionRevokedAll,
		EntityType: "account",
		EntityID:   &account.ID,
		After:      map[string]any{"revoked": revoked},
		Client:     client,
	})

	return revoked, nil
}

// Sweep deletes expired sessions and stale security tokens.
func (srv *sessionService) Sweep(ctx context.Context) (int, error) {
	sessions, err := srv.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to sweep sessions")
	}

	tokens, err := srv.tokenRepo.DeleteExpired(ctx)
	if err != nil {
		return sessions, errors.Wrap(err, "failed to sweep security tokens")
	}

	if sessions+tokens > 0 {
		srv.log(ctx).Info("Swept expired records",
			slog.Int("sessions", sessions),
			slog.Int("tokens", tokens),
		)
	}

	return sessions + tokens, nil
}
