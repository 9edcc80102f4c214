package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "atrium/internal/delivery/context"
	"atrium/internal/domain/entity"
	"atrium/internal/domain/repository"
	"atrium/internal/domain/service"
	"atrium/internal/usecase"

	"github.com/pkg/errors"
)

// suspiciousLoginWindow is how many recent attempts the heuristic inspects.
const suspiciousLoginWindow = 10

// loginFinalizer completes the flows that end in a signed-in account:
// password login, two-factor completion and OAuth callbacks. It opens the
// session, records history and raises the suspicious-origin alert.
type loginFinalizer struct {
	txManager       repository.TransactionManager
	historyRepo     repository.LoginHistoryRepository
	codec           service.TokenCodec
	deviceParser    service.DeviceParser
	limiter         service.RateLimiter
	mailer          service.Mailer
	audit           usecase.AuditUsecase
	sessionLifetime time.Duration
	logger          *slog.Logger
}

func (f *loginFinalizer) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, f.logger)
}

// finalize clears the failure counters, opens the session and records
// history, flagging logins from unrecognized origins.
func (f *loginFinalizer) finalize(ctx context.Context, account *entity.Account, client usecase.ClientInfo, auditAction string) (*usecase.LoginOutput, error) {
	recent, err := f.historyRepo.FindRecentByAccountID(ctx, account.ID, suspiciousLoginWindow)
	if err != nil {
		f.log(ctx).Warn("Failed to load login history", slog.Any("accountID", account.ID), slog.Any("error", err))
	}
	suspicious := isSuspicious(recent, client)

	var rawToken string
	var session *entity.Session
	err = f.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		markSuccessfulLogin(account, time.Now(), client.IPAddress)
		if err := repoFactory.AccountRepo().Update(ctx, account); err != nil {
			return err
		}

		rawToken, session, err = f.issueSession(ctx, repoFactory.SessionRepo(), account, client)
		if err != nil {
			return err
		}

		return repoFactory.LoginHistoryRepo().Record(ctx, &entity.LoginAttempt{
			AccountID:  &account.ID,
			Email:      account.Email,
			Success:    true,
			IPAddress:  client.IPAddress,
			UserAgent:  client.UserAgent,
			Suspicious: suspicious,
		})
	})
	if err != nil {
		f.log(ctx).Error("Failed to execute login transaction", slog.Any("accountID", account.ID), slog.Any("error", err))

		return nil, err
	}

	if err := f.limiter.Reset(ctx, service.RateActionLogin, account.Email); err != nil {
		f.log(ctx).Warn("Failed to reset login rate limit", slog.Any("error", err))
	}

	if suspicious {
		if err := f.mailer.SendSecurityAlert(ctx, account.Email, service.AlertSuspiciousLogin, map[string]string{
			"ip":     client.IPAddress,
			"device": client.UserAgent,
		}); err != nil {
			f.log(ctx).Warn("Failed to send suspicious login alert", slog.Any("error", err))
		}
	}

	f.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     auditAction,
		EntityType: "session",
		EntityID:   &session.ID,
		Client:     client,
	})

	return &usecase.LoginOutput{
		SessionToken: rawToken,
		Session:      session,
		Account:      account,
	}, nil
}

// issueSession creates the session row for an account. The raw token is
// returned alongside; only its digest was persisted.
func (f *loginFinalizer) issueSession(ctx context.Context, sessionRepo repository.SessionRepository, account *entity.Account, client usecase.ClientInfo) (string, *entity.Session, error) {
	raw, digest, err := f.codec.Issue()
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to issue session token")
	}

	now := time.Now()
	session := &entity.Session{
		AccountID:      account.ID,
		TokenDigest:    digest,
		Device:         f.deviceParser.Parse(client.UserAgent),
		IPAddress:      client.IPAddress,
		UserAgent:      client.UserAgent,
		LastActivityAt: now,
		ExpiresAt:      now.Add(f.sessionLifetime),
	}
	if err := sessionRepo.Create(ctx, session); err != nil {
		return "", nil, errors.Wrap(err, "failed to create session")
	}

	return raw, session, nil
}

// markSuccessfulLogin resets the failure counters and stamps the origin.
func markSuccessfulLogin(account *entity.Account, now time.Time, ip string) {
	account.FailedLogins = 0
	account.LockedUntil = nil
	account.LastLoginAt = &now
	account.LastLoginIP = ip
}

// isSuspicious reports whether a successful login comes from an origin the
// account has never used in its recent successful history. First-ever
// logins are not suspicious.
func isSuspicious(recent []*entity.LoginAttempt, client usecase.ClientInfo) bool {
	var pastSuccesses int
	for _, attempt := range recent {
		if !attempt.Success {
			continue
		}
		pastSuccesses++
		if attempt.IPAddress == client.IPAddress {
			return false
		}
	}

	return pastSuccesses > 0
}
