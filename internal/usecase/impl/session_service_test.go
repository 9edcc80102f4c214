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

type sessionFixture struct {
	factory *mocks.MockRepositoryFactory
	audit   *mocks.MockAuditUsecase
	codec   service.TokenCodec
	svc     usecase.SessionUsecase
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		factory: mocks.NewMockRepositoryFactory(),
		audit:   mocks.NewMockAuditUsecase(),
		codec:   securetoken.NewCodec(),
	}

	f.svc = impl.NewSessionService(impl.SessionServiceParams{
		TxManager:   mocks.NewMockTransactionManager(f.factory),
		AccountRepo: f.factory.Accounts,
		SessionRepo: f.factory.Sessions,
		TokenRepo:   f.factory.Tokens,
		Codec:       f.codec,
		Audit:       f.audit,
		Logger:      testLogger(),
	})

	return f
}

func TestSessionValidate(t *testing.T) {
	f := newSessionFixture()
	account := testAccount("pw")
	raw, digest, err := f.codec.Issue()
	require.NoError(t, err)
	session := &entity.Session{
		ID:          uuid.New(),
		AccountID:   account.ID,
		TokenDigest: digest,
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	f.factory.Sessions.FindByDigestFunc = func(_ context.Context, d string) (*entity.Session, error) {
		if d == digest {
			return session, nil
		}

		return nil, repository.ErrSessionNotFound
	}
	f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
		return account, nil
	}
	var touched uuid.UUID
	f.factory.Sessions.TouchFunc = func(_ context.Context, id uuid.UUID, _ time.Time) error {
		touched = id

		return nil
	}

	gotAccount, gotSession, err := f.svc.Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, account.ID, gotAccount.ID)
	assert.Equal(t, session.ID, gotSession.ID)
	assert.Equal(t, session.ID, touched)
}

func TestSessionValidate_Failures(t *testing.T) {
	f := newSessionFixture()

	t.Run("malformed token", func(t *testing.T) {
		_, _, err := f.svc.Validate(context.Background(), "garbage")
		assert.ErrorIs(t, err, domainerrors.ErrSessionInvalid)
	})

	t.Run("unknown token", func(t *testing.T) {
		raw, _, err := f.codec.Issue()
		require.NoError(t, err)
		_, _, err = f.svc.Validate(context.Background(), raw)
		assert.ErrorIs(t, err, domainerrors.ErrSessionInvalid)
	})

	t.Run("expired session", func(t *testing.T) {
		raw, _, err := f.codec.Issue()
		require.NoError(t, err)
		f.factory.Sessions.FindByDigestFunc = func(_ context.Context, _ string) (*entity.Session, error) {
			return nil, repository.ErrSessionExpired
		}
		_, _, err = f.svc.Validate(context.Background(), raw)
		assert.ErrorIs(t, err, domainerrors.ErrSessionInvalid)
	})
}

func TestSessionList_FlagsCurrent(t *testing.T) {
	f := newSessionFixture()
	accountID := uuid.New()
	current := &entity.Session{ID: uuid.New(), AccountID: accountID}
	other := &entity.Session{ID: uuid.New(), AccountID: accountID}
	f.factory.Sessions.FindByAccountIDFunc = func(_ context.Context, _ uuid.UUID) ([]*entity.Session, error) {
		return []*entity.Session{current, other}, nil
	}

	infos, err := f.svc.List(context.Background(), accountID, current.ID)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.True(t, infos[0].Current)
	assert.False(t, infos[1].Current)
}

func TestSessionRevoke(t *testing.T) {
	f := newSessionFixture()
	account := testAccount("pw")
	session := &entity.Session{ID: uuid.New(), AccountID: account.ID}
	foreign := &entity.Session{ID: uuid.New(), AccountID: uuid.New()}
	f.factory.Sessions.FindByIDFunc = func(_ context.Context, id uuid.UUID) (*entity.Session, error) {
		switch id {
		case session.ID:
			return session, nil
		case foreign.ID:
			return foreign, nil
		}

		return nil, repository.ErrSessionNotFound
	}

	t.Run("own session", func(t *testing.T) {
		err := f.svc.Revoke(context.Background(), account, session.ID, usecase.ClientInfo{})
		require.NoError(t, err)
		assert.Contains(t, f.audit.Actions(), entity.AuditActionSessionRevoked)
	})

	t.Run("foreign session looks absent", func(t *testing.T) {
		err := f.svc.Revoke(context.Background(), account, foreign.ID, usecase.ClientInfo{})
		assert.ErrorIs(t, err, domainerrors.ErrSessionNotFound)
	})

	t.Run("unknown session", func(t *testing.T) {
		err := f.svc.Revoke(context.Background(), account, uuid.New(), usecase.ClientInfo{})
		assert.ErrorIs(t, err, domainerrors.ErrSessionNotFound)
	})
}

func TestSessionRevokeAll(t *testing.T) {
	f := newSessionFixture()
	account := testAccount("pw")
	keep := uuid.New()

	var gotKeep *uuid.UUID
	f.factory.Sessions.DeleteByAccountIDFunc = func(_ context.Context, _ uuid.UUID, k *uuid.UUID) (int, error) {
		gotKeep = k

		return 4, nil
	}

	revoked, err := f.svc.RevokeAll(context.Background(), account, &keep, usecase.ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, 4, revoked)
	require.NotNil(t, gotKeep)
	assert.Equal(t, keep, *gotKeep)
	assert.Contains(t, f.audit.Actions(), entity.AuditActionSessionRevokedAll)
}

func TestSessionSweep(t *testing.T) {
	f := newSessionFixture()
	f.factory.Sessions.DeleteExpiredFunc = func(_ context.Context) (int, error) { return 5, nil }
	f.factory.Tokens.DeleteExpiredFunc = func(_ context.Context) (int, error) { return 2, nil }

	swept, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, swept)
}
