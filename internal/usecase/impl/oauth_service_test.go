package impl_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/repository"
	"atrium/internal/domain/service"
	"atrium/internal/infra/oauth"
	"atrium/internal/infra/securetoken"
	"atrium/internal/infra/state"
	"atrium/internal/mocks"
	"atrium/internal/usecase"
	"atrium/internal/usecase/impl"
)

type oauthFixture struct {
	factory  *mocks.MockRepositoryFactory
	provider *mocks.MockOAuthProvider
	signer   service.LinkTicketSigner
	limiter  *mocks.MockRateLimiter
	mailer   *mocks.MockMailer
	audit    *mocks.MockAuditUsecase
	hasher   *mocks.MockPasswordHasher
	store    *state.MemoryStore
	svc      usecase.OAuthUsecase
}

func newOAuthFixture(t *testing.T) *oauthFixture {
	t.Helper()

	signer, err := oauth.NewLinkTicketSigner("test-secret", 15*time.Minute)
	require.NoError(t, err)

	f := &oauthFixture{
		factory:  mocks.NewMockRepositoryFactory(),
		provider: mocks.NewMockOAuthProvider(entity.ProviderGoogle),
		signer:   signer,
		limiter:  mocks.NewMockRateLimiter(),
		mailer:   mocks.NewMockMailer(),
		audit:    mocks.NewMockAuditUsecase(),
		hasher:   mocks.NewMockPasswordHasher(),
		store:    state.NewMemoryStore(),
	}

	f.svc = impl.NewOAuthService(impl.OAuthServiceParams{
		TxManager:   mocks.NewMockTransactionManager(f.factory),
		AccountRepo: f.factory.Accounts,
		HistoryRepo: f.factory.History,
		Providers: map[entity.ProviderType]service.OAuthProvider{
			entity.ProviderGoogle: f.provider,
		},
		Signer:       f.signer,
		Hasher:       f.hasher,
		Codec:        securetoken.NewCodec(),
		StateStore:   f.store,
		Limiter:      f.limiter,
		Mailer:       f.mailer,
		Audit:        f.audit,
		DeviceParser: mocks.NewMockDeviceParser(),
		Config:       testConfig(),
		Logger:       testLogger(),
	})

	return f
}

// startFlow runs AuthorizationURL and extracts the state parameter.
func startFlow(t *testing.T, f *oauthFixture, accountID *uuid.UUID) string {
	t.Helper()

	authURL, err := f.svc.AuthorizationURL(context.Background(), entity.ProviderGoogle, accountID)
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	stateParam := parsed.Query().Get("state")
	require.NotEmpty(t, stateParam)

	return stateParam
}

func TestOAuthAuthorizationURL_UnknownProvider(t *testing.T) {
	f := newOAuthFixture(t)

	_, err := f.svc.AuthorizationURL(context.Background(), entity.ProviderMicrosoft, nil)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestOAuthCallback_StateChecks(t *testing.T) {
	f := newOAuthFixture(t)

	t.Run("forged state", func(t *testing.T) {
		_, err := f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, strings.Repeat("a", 64), "code", usecase.ClientInfo{})
		assert.ErrorIs(t, err, domainerrors.ErrOAuthStateInvalid)
	})

	t.Run("state is single-use", func(t *testing.T) {
		stateParam := startFlow(t, f, nil)

		// Replaying a state must fail regardless of the first outcome.
		_, _ = f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, stateParam, "code", usecase.ClientInfo{})
		_, err := f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, stateParam, "code", usecase.ClientInfo{})
		assert.ErrorIs(t, err, domainerrors.ErrOAuthStateInvalid)
	})
}

func TestOAuthCallback_SignInLinkedAccount(t *testing.T) {
	f := newOAuthFixture(t)
	account := testAccount("pw")
	account.OAuthProvider = entity.ProviderGoogle
	account.OAuthSubject = "subject-code"
	f.factory.Accounts.FindByProviderSubjectFunc = func(_ context.Context, provider entity.ProviderType, subject string) (*entity.Account, error) {
		if provider == entity.ProviderGoogle && subject == account.OAuthSubject {
			return account, nil
		}

		return nil, repository.ErrAccountNotFound
	}

	stateParam := startFlow(t, f, nil)
	out, err := f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, stateParam, "code", usecase.ClientInfo{IPAddress: "203.0.113.1"})
	require.NoError(t, err)

	assert.False(t, out.LinkRequired)
	assert.NotEmpty(t, out.SessionToken)
	assert.Equal(t, account.ID, out.Account.ID)
	assert.Contains(t, f.audit.Actions(), entity.AuditActionOAuthLogin)
}

func TestOAuthCallback_EmailMatchDemandsLink(t *testing.T) {
	f := newOAuthFixture(t)
	account := testAccount("pw")
	account.Email = "external@example.com"
	f.factory.Accounts.FindByEmailFunc = func(_ context.Context, email string) (*entity.Account, error) {
		if email == account.Email {
			return account, nil
		}

		return nil, repository.ErrAccountNotFound
	}

	stateParam := startFlow(t, f, nil)
	out, err := f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, stateParam, "code", usecase.ClientInfo{})
	require.NoError(t, err)

	assert.True(t, out.LinkRequired)
	assert.NotEmpty(t, out.LinkTicket)
	assert.Empty(t, out.SessionToken)

	link, err := f.signer.Verify(out.LinkTicket)
	require.NoError(t, err)
	assert.Equal(t, account.ID, link.AccountID)
	assert.Equal(t, entity.ProviderGoogle, link.Provider)
}

func TestOAuthCallback_UnknownIdentityProvisionsAccount(t *testing.T) {
	f := newOAuthFixture(t)

	var created *entity.Account
	f.factory.Accounts.CreateFunc = func(_ context.Context, account *entity.Account) error {
		account.ID = uuid.New()
		created = account

		return nil
	}

	stateParam := startFlow(t, f, nil)
	out, err := f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, stateParam, "code", usecase.ClientInfo{IPAddress: "203.0.113.5"})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, testDefaultTenant, created.TenantID)
	assert.Equal(t, "external@example.com", created.Email)
	assert.Equal(t, entity.RoleAgent, created.Role)
	assert.Empty(t, created.PasswordHash)
	assert.True(t, created.EmailVerified)
	assert.Equal(t, entity.ProviderGoogle, created.OAuthProvider)
	assert.Equal(t, "subject-code", created.OAuthSubject)

	assert.NotEmpty(t, out.SessionToken)
	assert.Equal(t, created.ID, out.Account.ID)
	assert.Contains(t, f.audit.Actions(), entity.AuditActionRegister)
	assert.Contains(t, f.audit.Actions(), entity.AuditActionOAuthLogin)
}

func TestOAuthCallback_IdentityWithoutEmailRejected(t *testing.T) {
	f := newOAuthFixture(t)
	f.provider.ExchangeFunc = func(_ context.Context, code string) (*service.ExternalIdentity, error) {
		return &service.ExternalIdentity{Provider: entity.ProviderGoogle, Subject: "subject-" + code}, nil
	}

	stateParam := startFlow(t, f, nil)
	_, err := f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, stateParam, "code", usecase.ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrOAuthNotLinked)
}

func TestOAuthCallback_ExplicitLink(t *testing.T) {
	f := newOAuthFixture(t)
	account := testAccount("pw")
	f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
		return account, nil
	}

	stateParam := startFlow(t, f, &account.ID)
	out, err := f.svc.HandleCallback(context.Background(), entity.ProviderGoogle, stateParam, "code", usecase.ClientInfo{})
	require.NoError(t, err)

	assert.False(t, out.LinkRequired)
	assert.Equal(t, entity.ProviderGoogle, account.OAuthProvider)
	assert.Equal(t, "subject-code", account.OAuthSubject)
	assert.Contains(t, f.audit.Actions(), entity.AuditActionOAuthLinked)
}

func TestOAuthCompleteLink(t *testing.T) {
	f := newOAuthFixture(t)
	account := testAccount("pw")
	f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
		return account, nil
	}

	ticket, err := f.signer.Sign(service.PendingLink{
		AccountID: account.ID,
		Provider:  entity.ProviderGoogle,
		Subject:   "sub-123",
		Email:     account.Email,
	}, time.Now())
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.CompleteLink(context.Background(), usecase.CompleteLinkInput{
			Ticket:   ticket,
			Password: "wrong",
		})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("bogus ticket", func(t *testing.T) {
		_, err := f.svc.CompleteLink(context.Background(), usecase.CompleteLinkInput{
			Ticket:   "garbage",
			Password: "pw",
		})
		assert.ErrorIs(t, err, domainerrors.ErrOAuthStateInvalid)
	})

	t.Run("success links and signs in", func(t *testing.T) {
		out, err := f.svc.CompleteLink(context.Background(), usecase.CompleteLinkInput{
			Ticket:   ticket,
			Password: "pw",
		})
		require.NoError(t, err)

		assert.Equal(t, entity.ProviderGoogle, account.OAuthProvider)
		assert.Equal(t, "sub-123", account.OAuthSubject)
		assert.NotEmpty(t, out.SessionToken)
		assert.Contains(t, f.audit.Actions(), entity.AuditActionOAuthLinked)
	})
}

func TestOAuthCompleteLink_IdentityTakenElsewhere(t *testing.T) {
	f := newOAuthFixture(t)
	account := testAccount("pw")
	other := testAccount("pw2")
	f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
		return account, nil
	}
	f.factory.Accounts.FindByProviderSubjectFunc = func(_ context.Context, _ entity.ProviderType, _ string) (*entity.Account, error) {
		return other, nil
	}

	ticket, err := f.signer.Sign(service.PendingLink{
		AccountID: account.ID,
		Provider:  entity.ProviderGoogle,
		Subject:   "sub-123",
	}, time.Now())
	require.NoError(t, err)

	_, err = f.svc.CompleteLink(context.Background(), usecase.CompleteLinkInput{
		Ticket:   ticket,
		Password: "pw",
	})
	assert.ErrorIs(t, err, domainerrors.ErrOAuthFailed)
}

func TestOAuthUnlink(t *testing.T) {
	f := newOAuthFixture(t)

	t.Run("nothing linked", func(t *testing.T) {
		account := testAccount("pw")
		f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
			return account, nil
		}

		err := f.svc.Unlink(context.Background(), usecase.UnlinkInput{AccountID: account.ID, Password: "pw"})
		assert.ErrorIs(t, err, domainerrors.ErrOAuthNotLinked)
	})

	t.Run("no password and no replacement", func(t *testing.T) {
		account := testAccount("pw")
		account.PasswordHash = ""
		account.OAuthProvider = entity.ProviderGoogle
		account.OAuthSubject = "sub"
		f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
			return account, nil
		}

		err := f.svc.Unlink(context.Background(), usecase.UnlinkInput{AccountID: account.ID})
		assert.ErrorIs(t, err, domainerrors.ErrUnlinkNeedsPassword)
		assert.Equal(t, entity.ProviderGoogle, account.OAuthProvider)
	})

	t.Run("no password force-sets the replacement", func(t *testing.T) {
		account := testAccount("pw")
		account.PasswordHash = ""
		account.OAuthProvider = entity.ProviderGoogle
		account.OAuthSubject = "sub"
		f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
			return account, nil
		}

		err := f.svc.Unlink(context.Background(), usecase.UnlinkInput{
			AccountID:   account.ID,
			NewPassword: "Fresh!Passw0rd",
		})
		require.NoError(t, err)
		assert.Equal(t, mocks.MockHash("Fresh!Passw0rd"), account.PasswordHash)
		assert.Empty(t, account.OAuthProvider)
		assert.Empty(t, account.OAuthSubject)
	})

	t.Run("weak replacement rejected", func(t *testing.T) {
		account := testAccount("pw")
		account.PasswordHash = ""
		account.OAuthProvider = entity.ProviderGoogle
		account.OAuthSubject = "sub"
		f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
			return account, nil
		}
		f.hasher.ValidateStrengthFunc = func(string) error {
			return domainerrors.ErrPasswordStrength
		}
		defer func() { f.hasher.ValidateStrengthFunc = nil }()

		err := f.svc.Unlink(context.Background(), usecase.UnlinkInput{
			AccountID:   account.ID,
			NewPassword: "weak",
		})
		assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)
		assert.Equal(t, entity.ProviderGoogle, account.OAuthProvider)
	})

	t.Run("success clears the identity", func(t *testing.T) {
		account := testAccount("pw")
		account.OAuthProvider = entity.ProviderGoogle
		account.OAuthSubject = "sub"
		f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
			return account, nil
		}

		err := f.svc.Unlink(context.Background(), usecase.UnlinkInput{AccountID: account.ID, Password: "pw"})
		require.NoError(t, err)
		assert.Empty(t, account.OAuthProvider)
		assert.Empty(t, account.OAuthSubject)
		assert.Contains(t, f.audit.Actions(), entity.AuditActionOAuthUnlinked)
	})
}

func TestOAuthStatus(t *testing.T) {
	f := newOAuthFixture(t)
	account := testAccount("pw")
	account.OAuthProvider = entity.ProviderGoogle
	f.factory.Accounts.FindByIDFunc = func(_ context.Context, _ uuid.UUID) (*entity.Account, error) {
		return account, nil
	}

	statuses, err := f.svc.Status(context.Background(), account.ID)
	require.NoError(t, err)
	// Only Google is configured in this fixture.
	require.Len(t, statuses, 1)
	assert.Equal(t, entity.ProviderGoogle, statuses[0].Provider)
	assert.True(t, statuses[0].Linked)
}
