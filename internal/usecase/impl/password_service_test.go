package impl_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/repository"
	"atrium/internal/domain/service"
	"atrium/internal/infra/securetoken"
	"atrium/internal/mocks"
	"atrium/internal/usecase"
	"atrium/internal/usecase/impl"
)

type passwordFixture struct {
	factory *mocks.MockRepositoryFactory
	limiter *mocks.MockRateLimiter
	mailer  *mocks.MockMailer
	audit   *mocks.MockAuditUsecase
	hasher  *mocks.MockPasswordHasher
	codec   service.TokenCodec
	svc     usecase.PasswordUsecase
}

func newPasswordFixture() *passwordFixture {
	f := &passwordFixture{
		factory: mocks.NewMockRepositoryFactory(),
		limiter: mocks.NewMockRateLimiter(),
		mailer:  mocks.NewMockMailer(),
		audit:   mocks.NewMockAuditUsecase(),
		hasher:  mocks.NewMockPasswordHasher(),
		codec:   securetoken.NewCodec(),
	}

	f.svc = impl.NewPasswordService(impl.PasswordServiceParams{
		TxManager:   mocks.NewMockTransactionManager(f.factory),
		AccountRepo: f.factory.Accounts,
		TokenRepo:   f.factory.Tokens,
		Hasher:      f.hasher,
		Codec:       f.codec,
		Limiter:     f.limiter,
		Mailer:      f.mailer,
		Audit:       f.audit,
		Config:      testConfig(),
		Logger:      testLogger(),
	})

	return f
}

func TestRequestReset_UnknownEmailIsSilent(t *testing.T) {
	f := newPasswordFixture()

	err := f.svc.RequestReset(context.Background(), usecase.RequestResetInput{
		Email: "nobody@example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, f.mailer.ResetMails)
	assert.Empty(t, f.audit.Recorded)
}

func TestRequestReset_IssuesToken(t *testing.T) {
	f := newPasswordFixture()
	account := testAccount("pw")
	f.factory.Accounts.FindByEmailFunc = func(_ context.Context, _ string) (*entity.Account, error) {
		return account, nil
	}

	var stored *entity.SecurityToken
	f.factory.Tokens.ReplaceFunc = func(_ context.Context, token *entity.SecurityToken) error {
		stored = token

		return nil
	}

	err := f.svc.RequestReset(context.Background(), usecase.RequestResetInput{Email: account.Email})
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, entity.TokenPurposeReset, stored.Purpose)
	assert.Equal(t, account.ID, stored.AccountID)
	assert.Len(t, stored.Digest, 64)
	assert.True(t, stored.ExpiresAt.After(time.Now()))
	assert.Equal(t, []string{account.Email}, f.mailer.ResetMails)
	assert.Contains(t, f.audit.Actions(), entity.AuditActionPasswordResetRequest)
}

func TestResetPassword_MalformedToken(t *testing.T) {
	f := newPasswordFixture()

	err := f.svc.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Token:       "short",
		NewPassword: "New!Passw0rd",
	})
	assert.ErrorIs(t, err, domainerrors.ErrTokenMalformed)
}

func TestResetPassword_UnknownToken(t *testing.T) {
	f := newPasswordFixture()
	raw, _, err := f.codec.Issue()
	require.NoError(t, err)

	err = f.svc.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Token:       raw,
		NewPassword: "New!Passw0rd",
	})
	// A consumed token is indistinguishable from an unknown one; both
	// report as expired so a replayed reset link reads correctly.
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestResetPassword_ExpiredTokenConsumed(t *testing.T) {
	f := newPasswordFixture()
	raw, digest, err := f.codec.Issue()
	require.NoError(t, err)

	token := &entity.SecurityToken{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Purpose:   entity.TokenPurposeReset,
		Digest:    digest,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	f.factory.Tokens.FindByDigestFunc = func(_ context.Context, _ entity.TokenPurpose, d string) (*entity.SecurityToken, error) {
		if d == digest {
			return token, nil
		}

		return nil, repository.ErrTokenNotFound
	}
	var deleted uuid.UUID
	f.factory.Tokens.DeleteFunc = func(_ context.Context, id uuid.UUID) error {
		deleted = id

		return nil
	}

	err = f.svc.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Token:       raw,
		NewPassword: "New!Passw0rd",
	})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
	assert.Equal(t, token.ID, deleted)
}

func TestCheckResetToken(t *testing.T) {
	f := newPasswordFixture()
	account := testAccount("pw")
	raw, digest, err := f.codec.Issue()
	require.NoError(t, err)

	t.Run("malformed", func(t *testing.T) {
		_, err := f.svc.CheckResetToken(context.Background(), "short")
		assert.ErrorIs(t, err, domainerrors.ErrTokenMalformed)
	})

	t.Run("unknown reports expired", func(t *testing.T) {
		_, err := f.svc.CheckResetToken(context.Background(), raw)
		assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
	})

	t.Run("valid token stays unconsumed", func(t *testing.T) {
		f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
			return account, nil
		}
		f.factory.Tokens.FindByDigestFunc = func(_ context.Context, _ entity.TokenPurpose, d string) (*entity.SecurityToken, error) {
			if d == digest {
				return &entity.SecurityToken{
					ID:        uuid.New(),
					AccountID: account.ID,
					Purpose:   entity.TokenPurposeReset,
					Digest:    digest,
					ExpiresAt: time.Now().Add(time.Hour),
				}, nil
			}

			return nil, repository.ErrTokenNotFound
		}
		deleted := false
		f.factory.Tokens.DeleteFunc = func(_ context.Context, _ uuid.UUID) error {
			deleted = true

			return nil
		}

		email, err := f.svc.CheckResetToken(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, account.Email, email)
		assert.False(t, deleted)
	})

	t.Run("expired", func(t *testing.T) {
		f.factory.Tokens.FindByDigestFunc = func(_ context.Context, _ entity.TokenPurpose, _ string) (*entity.SecurityToken, error) {
			return &entity.SecurityToken{
				ID:        uuid.New(),
				Purpose:   entity.TokenPurposeReset,
				Digest:    digest,
				ExpiresAt: time.Now().Add(-time.Minute),
			}, nil
		}

		_, err := f.svc.CheckResetToken(context.Background(), raw)
		assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
	})
}

func TestResetPassword_Success(t *testing.T) {
	f := newPasswordFixture()
	account := testAccount("old-password")
	locked := time.Now().Add(time.Hour)
	account.LockedUntil = &locked
	account.FailedLogins = 5

	raw, digest, err := f.codec.Issue()
	require.NoError(t, err)
	token := &entity.SecurityToken{
		ID:        uuid.New(),
		AccountID: account.ID,
		Purpose:   entity.TokenPurposeReset,
		Digest:    digest,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	f.factory.Tokens.FindByDigestFunc = func(_ context.Context, _ entity.TokenPurpose, _ string) (*entity.SecurityToken, error) {
		return token, nil
	}
	f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
		return account, nil
	}
	var keptSession *uuid.UUID
	revoked := false
	f.factory.Sessions.DeleteByAccountIDFunc = func(_ context.Context, _ uuid.UUID, keep *uuid.UUID) (int, error) {
		keptSession = keep
		revoked = true

		return 3, nil
	}

	err = f.svc.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Token:       raw,
		NewPassword: "New!Passw0rd",
	})
	require.NoError(t, err)

	assert.Equal(t, mocks.MockHash("New!Passw0rd"), account.PasswordHash)
	assert.Contains(t, account.PasswordHistory, mocks.MockHash("old-password"))
	assert.Nil(t, account.LockedUntil)
	assert.Zero(t, account.FailedLogins)
	// Every session goes, the reset flow has no session of its own.
	assert.True(t, revoked)
	assert.Nil(t, keptSession)
	assert.Contains(t, f.mailer.Alerts, service.AlertPasswordChanged)
	assert.Contains(t, f.audit.Actions(), entity.AuditActionPasswordReset)
	assert.Contains(t, f.limiter.ResetCalls, [2]string{"password_reset", account.Email})
}

func TestResetPassword_ReusedPassword(t *testing.T) {
	f := newPasswordFixture()
	account := testAccount("old-password")

	raw, digest, err := f.codec.Issue()
	require.NoError(t, err)
	f.factory.Tokens.FindByDigestFunc = func(_ context.Context, _ entity.TokenPurpose, _ string) (*entity.SecurityToken, error) {
		return &entity.SecurityToken{
			ID:        uuid.New(),
			AccountID: account.ID,
			Purpose:   entity.TokenPurposeReset,
			Digest:    digest,
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil
	}
	f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
		return account, nil
	}

	err = f.svc.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Token:       raw,
		NewPassword: "old-password",
	})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordReused)
}
