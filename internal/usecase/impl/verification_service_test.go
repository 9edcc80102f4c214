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
	"atrium/internal/domain/service"
	"atrium/internal/infra/securetoken"
	"atrium/internal/mocks"
	"atrium/internal/usecase"
	"atrium/internal/usecase/impl"
)

type verificationFixture struct {
	factory *mocks.MockRepositoryFactory
	limiter *mocks.MockRateLimiter
	mailer  *mocks.MockMailer
	audit   *mocks.MockAuditUsecase
	codec   service.TokenCodec
	svc     usecase.VerificationUsecase
}

func newVerificationFixture() *verificationFixture {
	f := &verificationFixture{
		factory: mocks.NewMockRepositoryFactory(),
		limiter: mocks.NewMockRateLimiter(),
		mailer:  mocks.NewMockMailer(),
		audit:   mocks.NewMockAuditUsecase(),
		codec:   securetoken.NewCodec(),
	}

	f.svc = impl.NewVerificationService(impl.VerificationServiceParams{
		TxManager:   mocks.NewMockTransactionManager(f.factory),
		AccountRepo: f.factory.Accounts,
		TokenRepo:   f.factory.Tokens,
		Codec:       f.codec,
		Limiter:     f.limiter,
		Mailer:      f.mailer,
		Audit:       f.audit,
		Config:      testConfig(),
		Logger:      testLogger(),
	})

	return f
}

func TestVerifyEmail_Success(t *testing.T) {
	f := newVerificationFixture()
	account := testAccount("pw")
	account.EmailVerified = false

	raw, digest, err := f.codec.Issue()
	require.NoError(t, err)
	token := &entity.SecurityToken{
		ID:        uuid.New(),
		AccountID: account.ID,
		Purpose:   entity.TokenPurposeVerifyEmail,
		Digest:    digest,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	f.factory.Tokens.FindByDigestFunc = func(_ context.Context, purpose entity.TokenPurpose, _ string) (*entity.SecurityToken, error) {
		assert.Equal(t, entity.TokenPurposeVerifyEmail, purpose)

		return token, nil
	}
	f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
		return account, nil
	}
	var consumed uuid.UUID
	f.factory.Tokens.DeleteFunc = func(_ context.Context, id uuid.UUID) error {
		consumed = id

		return nil
	}

	err = f.svc.VerifyEmail(context.Background(), raw, usecase.ClientInfo{})
	require.NoError(t, err)

	assert.True(t, account.EmailVerified)
	assert.Equal(t, token.ID, consumed)
	assert.Contains(t, f.audit.Actions(), entity.AuditActionEmailVerified)
}

func TestVerifyEmail_MalformedAndUnknown(t *testing.T) {
	f := newVerificationFixture()

	err := f.svc.VerifyEmail(context.Background(), "garbage", usecase.ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrTokenMalformed)

	raw, _, err := f.codec.Issue()
	require.NoError(t, err)
	err = f.svc.VerifyEmail(context.Background(), raw, usecase.ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
}

func TestResendVerification(t *testing.T) {
	f := newVerificationFixture()

	t.Run("unknown email is silent", func(t *testing.T) {
		err := f.svc.ResendVerification(context.Background(), "nobody@example.com", usecase.ClientInfo{})
		require.NoError(t, err)
		assert.Empty(t, f.mailer.VerifyMails)
	})

	t.Run("already verified is silent", func(t *testing.T) {
		account := testAccount("pw")
		account.EmailVerified = true
		f.factory.Accounts.FindByEmailFunc = func(_ context.Context, _ string) (*entity.Account, error) {
			return account, nil
		}

		err := f.svc.ResendVerification(context.Background(), account.Email, usecase.ClientInfo{})
		require.NoError(t, err)
		assert.Empty(t, f.mailer.VerifyMails)
	})

	t.Run("unverified gets a fresh token", func(t *testing.T) {
		account := testAccount("pw")
		account.EmailVerified = false
		f.factory.Accounts.FindByEmailFunc = func(_ context.Context, _ string) (*entity.Account, error) {
			return account, nil
		}
		var stored *entity.SecurityToken
		f.factory.Tokens.ReplaceFunc = func(_ context.Context, token *entity.SecurityToken) error {
			stored = token

			return nil
		}

		err := f.svc.ResendVerification(context.Background(), account.Email, usecase.ClientInfo{})
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, entity.TokenPurposeVerifyEmail, stored.Purpose)
		assert.Equal(t, []string{account.Email}, f.mailer.VerifyMails)
	})
}

func TestResendVerification_RateLimited(t *testing.T) {
	f := newVerificationFixture()
	f.limiter.AllowFunc = func(_ context.Context, action, _ string) error {
		assert.Equal(t, service.RateActionResendVerification, action)

		return domainerrors.NewRateLimitError(120)
	}

	err := f.svc.ResendVerification(context.Background(), "agent@example.com", usecase.ClientInfo{})
	var rateErr *domainerrors.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 120, rateErr.RetryAfter)
}
