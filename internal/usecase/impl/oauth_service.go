package impl

import (
	"context"
	"encoding/json"
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

// oauthService implements the OAuthUsecase interface.
type oauthService struct {
	txManager     repository.TransactionManager
	accountRepo   repository.AccountRepository
	providers     map[entity.ProviderType]service.OAuthProvider
	signer        service.LinkTicketSigner
	hasher        service.PasswordHasher
	codec         service.TokenCodec
	stateStore    service.StateStore
	limiter       service.RateLimiter
	audit         usecase.AuditUsecase
	finalizer     *loginFinalizer
	stateTTL      time.Duration
	defaultTenant uuid.UUID
	logger        *slog.Logger
}

// OAuthServiceParams holds dependencies for OAuthService, injected by Fx.
type OAuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	AccountRepo  repository.AccountRepository
	HistoryRepo  repository.LoginHistoryRepository
	Providers    map[entity.ProviderType]service.OAuthProvider
	Signer       service.LinkTicketSigner
	Hasher       service.PasswordHasher
	Codec        service.TokenCodec
	StateStore   service.StateStore
	Limiter      service.RateLimiter
	Mailer       service.Mailer
	Audit        usecase.AuditUsecase
	DeviceParser service.DeviceParser
	Config       *config.Config
	Logger       *slog.Logger
}

// NewOAuthService is the constructor for oauthService.
func NewOAuthService(params OAuthServiceParams) usecase.OAuthUsecase {
	// An absent or malformed tenant id leaves provisioned accounts on the
	// zero tenant.
	defaultTenant, _ := uuid.Parse(params.Config.OAuth.DefaultTenant)

	return &oauthService{
		txManager:   params.TxManager,
		accountRepo: params.AccountRepo,
		providers:   params.Providers,
		signer:      params.Signer,
		hasher:      params.Hasher,
		codec:       params.Codec,
		stateStore:  params.StateStore,
		limiter:     params.Limiter,
		audit:       params.Audit,
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
		stateTTL:      params.Config.OAuth.StateTTL,
		defaultTenant: defaultTenant,
		logger:        params.Logger,
	}
}

func (srv *oauthService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// oauthStatePayload is what the state parameter resolves to server-side. A
// non-nil AccountID marks the round-trip as an explicit link.
type oauthStatePayload struct {
	Provider  entity.ProviderType `json:"provider"`
	AccountID *uuid.UUID          `json:"accountId,omitempty"`
}

func oauthStateKey(digest string) string {
	return "oauth:state:" + digest
}

// AuthorizationURL starts the consent round-trip.
func (srv *oauthService) AuthorizationURL(ctx context.Context, provider entity.ProviderType, accountID *uuid.UUID) (string, error) {
	p, ok := srv.providers[provider]
	if !ok {
		return "", domainerrors.ErrNotFound
	}

	state, digest, err := srv.codec.Issue()
	if err != nil {
		return "", errors.Wrap(err, "failed to issue oauth state")
	}

	payload, err := json.Marshal(oauthStatePayload{Provider: provider, AccountID: accountID})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal oauth state")
	}
	if err := srv.stateStore.Set(ctx, oauthStateKey(digest), string(payload), srv.stateTTL.Milliseconds()); err != nil {
		return "", errors.Wrap(err, "failed to store oauth state")
	}

	return p.AuthCodeURL(state), nil
}

// HandleCallback consumes the state, exchanges the code and routes the
// identity: sign-in for linked accounts, a link ticket for email matches,
// a direct link for flows started by a signed-in account.
func (srv *oauthService) HandleCallback(ctx context.Context, provider entity.ProviderType, state, code string, client usecase.ClientInfo) (*usecase.OAuthCallbackOutput, error) {
	p, ok := srv.providers[provider]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}

	payload, err := srv.consumeState(ctx, provider, state)
	if err != nil {
		return nil, err
	}

	identity, err := p.Exchange(ctx, code)
	if err != nil {
		srv.log(ctx).Warn("OAuth code exchange failed", slog.String("provider", string(provider)), slog.Any("error", err))

		return nil, domainerrors.ErrOAuthFailed
	}

	if payload.AccountID != nil {
		return srv.linkExplicit(ctx, *payload.AccountID, identity, client)
	}

	return srv.signIn(ctx, identity, client)
}

// CompleteLink joins the pending identity to its account after the password
// checks out, then signs the caller in.
func (srv *oauthService) CompleteLink(ctx context.Context, input usecase.CompleteLinkInput) (*usecase.OAuthCallbackOutput, error) {
	link, err := srv.signer.Verify(input.Ticket)
	if err != nil {
		return nil, err
	}

	if err := srv.limiter.Allow(ctx, service.RateActionOAuthLink, link.AccountID.String()); err != nil {
		return nil, err
	}

	account, err := srv.accountRepo.FindByID(ctx, link.AccountID)
	if err != nil {
		return nil, domainerrors.ErrOAuthStateInvalid
	}
	if !account.HasPassword() || !srv.hasher.Check(input.Password, account.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	if err := srv.ensureIdentityFree(ctx, link.Provider, link.Subject, account.ID); err != nil {
		return nil, err
	}

	account.OAuthProvider = link.Provider
	account.OAuthSubject = link.Subject

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionOAuthLinked,
		EntityType: "account",
		EntityID:   &account.ID,
		After:      map[string]any{"provider": string(link.Provider)},
		Client:     input.Client,
	})

	out, err := srv.finalizer.finalize(ctx, account, input.Client, entity.AuditActionOAuthLogin)
	if err != nil {
		return nil, err
	}

	if err := srv.limiter.Reset(ctx, service.RateActionOAuthLink, account.ID.String()); err != nil {
		srv.log(ctx).Warn("Failed to reset link rate limit", slog.Any("error", err))
	}

	return &usecase.OAuthCallbackOutput{
		SessionToken: out.SessionToken,
		Session:      out.Session,
		Account:      out.Account,
	}, nil
}

// Unlink detaches the provider. A password account proves with its
// password; an OAuth-only account must supply a new password, set in the
// same operation, so it is never left with no way to sign in.
func (srv *oauthService) Unlink(ctx context.Context, input usecase.UnlinkInput) error {
	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		return errors.Wrap(err, "failed to find account")
	}

	if !account.HasOAuth() {
		return domainerrors.ErrOAuthNotLinked
	}
	if account.HasPassword() {
		if !srv.hasher.Check(input.Password, account.PasswordHash) {
			return domainerrors.ErrInvalidCredentials
		}
	} else {
		if input.NewPassword == "" {
			return domainerrors.ErrUnlinkNeedsPassword
		}
		if err := srv.hasher.ValidateStrength(input.NewPassword); err != nil {
			return err
		}
		newHash, err := srv.hasher.Hash(input.NewPassword)
		if err != nil {
			return errors.Wrap(err, "failed to hash password")
		}
		account.PasswordHash = newHash
	}

	unlinked := account.OAuthProvider
	account.OAuthProvider = ""
	account.OAuthSubject = ""

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.AccountRepo().Update(ctx, account)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute unlink transaction", slog.Any("accountID", account.ID), slog.Any("error", err))

		return err
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionOAuthUnlinked,
		EntityType: "account",
		EntityID:   &account.ID,
		Before:     map[string]any{"provider": string(unlinked)},
		Client:     input.Client,
	})

	return nil
}

// Status lists the link state of every configured provider.
func (srv *oauthService) Status(ctx context.Context, accountID uuid.UUID) ([]*usecase.OAuthProviderStatus, error) {
	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find account")
	}

	statuses := make([]*usecase.OAuthProviderStatus, 0, len(srv.providers))
	for _, provider := range []entity.ProviderType{entity.ProviderGoogle, entity.ProviderMicrosoft} {
		if _, ok := srv.providers[provider]; !ok {
			continue
		}
		statuses = append(statuses, &usecase.OAuthProviderStatus{
			Provider: provider,
			Linked:   account.OAuthProvider == provider,
		})
	}

	return statuses, nil
}

// --- Internal helpers ---

// consumeState resolves and deletes the state parameter. Replay, expiry and
// provider mismatch all map to the same error.
func (srv *oauthService) consumeState(ctx context.Context, provider entity.ProviderType, state string) (*oauthStatePayload, error) {
	digest, err := srv.codec.Digest(state)
	if err != nil {
		return nil, domainerrors.ErrOAuthStateInvalid
	}

	value, ok, err := srv.stateStore.Get(ctx, oauthStateKey(digest))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load oauth state")
	}
	if !ok {
		return nil, domainerrors.ErrOAuthStateInvalid
	}
	if err := srv.stateStore.Delete(ctx, oauthStateKey(digest)); err != nil {
		srv.log(ctx).Warn("Failed to consume oauth state", slog.Any("error", err))
	}

	var payload oauthStatePayload
	if err := json.Unmarshal([]byte(value), &payload); err != nil {
		return nil, domainerrors.ErrOAuthStateInvalid
	}
	if payload.Provider != provider {
		return nil, domainerrors.ErrOAuthStateInvalid
	}

	return &payload, nil
}

// signIn routes a login callback. Linked identities sign in directly; an
// email match demands explicit confirmation; a brand-new identity gets an
// OAuth-only account provisioned on the spot.
func (srv *oauthService) signIn(ctx context.Context, identity *service.ExternalIdentity, client usecase.ClientInfo) (*usecase.OAuthCallbackOutput, error) {
	account, err := srv.accountRepo.FindByProviderSubject(ctx, identity.Provider, identity.Subject)
	if err == nil {
		if identity.EmailVerified && !account.EmailVerified {
			account.EmailVerified = true
		}

		out, err := srv.finalizer.finalize(ctx, account, client, entity.AuditActionOAuthLogin)
		if err != nil {
			return nil, err
		}

		return &usecase.OAuthCallbackOutput{
			SessionToken: out.SessionToken,
			Session:      out.Session,
			Account:      out.Account,
		}, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, errors.Wrap(err, "failed to find account by identity")
	}

	// Provisioning and email matching both need an address from the
	// provider; an identity without one cannot become an account.
	if identity.Email == "" {
		return nil, domainerrors.ErrOAuthNotLinked
	}

	account, err = srv.accountRepo.FindByEmail(ctx, identity.Email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return srv.provision(ctx, identity, client)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find account by email")
	}

	ticket, err := srv.signer.Sign(service.PendingLink{
		AccountID: account.ID,
		Provider:  identity.Provider,
		Subject:   identity.Subject,
		Email:     identity.Email,
		Name:      identity.Name,
	}, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign link ticket")
	}

	return &usecase.OAuthCallbackOutput{LinkRequired: true, LinkTicket: ticket}, nil
}

// provision creates an OAuth-only account on the first sign-in through a
// provider. The email-verified flag trusts the provider's claim; the
// account lands on the configured default tenant.
func (srv *oauthService) provision(ctx context.Context, identity *service.ExternalIdentity, client usecase.ClientInfo) (*usecase.OAuthCallbackOutput, error) {
	account := &entity.Account{
		TenantID:      srv.defaultTenant,
		Email:         identity.Email,
		Name:          identity.Name,
		Role:          entity.RoleAgent,
		EmailVerified: identity.EmailVerified,
		OAuthProvider: identity.Provider,
		OAuthSubject:  identity.Subject,
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.AccountRepo().Create(ctx, account)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute provisioning transaction", slog.String("email", identity.Email), slog.Any("error", err))

		return nil, err
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionRegister,
		EntityType: "account",
		EntityID:   &account.ID,
		After:      map[string]any{"email": account.Email, "provider": string(identity.Provider)},
		Client:     client,
	})

	out, err := srv.finalizer.finalize(ctx, account, client, entity.AuditActionOAuthLogin)
	if err != nil {
		return nil, err
	}

	return &usecase.OAuthCallbackOutput{
		SessionToken: out.SessionToken,
		Session:      out.Session,
		Account:      out.Account,
	}, nil
}

// linkExplicit joins an identity to the signed-in account that started the
// flow. No password proof is needed; starting the flow required a session.
func (srv *oauthService) linkExplicit(ctx context.Context, accountID uuid.UUID, identity *service.ExternalIdentity, client usecase.ClientInfo) (*usecase.OAuthCallbackOutput, error) {
	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, domainerrors.ErrOAuthStateInvalid
	}

	if err := srv.ensureIdentityFree(ctx, identity.Provider, identity.Subject, account.ID); err != nil {
		return nil, err
	}

	account.OAuthProvider = identity.Provider
	account.OAuthSubject = identity.Subject
	if identity.EmailVerified && identity.Email == account.Email {
		account.EmailVerified = true
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.AccountRepo().Update(ctx, account)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute link transaction", slog.Any("accountID", account.ID), slog.Any("error", err))

		return nil, err
	}

	srv.audit.Record(ctx, usecase.AuditRecordInput{
		TenantID:   account.TenantID,
		ActorID:    &account.ID,
		Action:     entity.AuditActionOAuthLinked,
		EntityType: "account",
		EntityID:   &account.ID,
		After:      map[string]any{"provider": string(identity.Provider)},
		Client:     client,
	})

	return &usecase.OAuthCallbackOutput{Account: account}, nil
}

// ensureIdentityFree rejects a link when another account already holds the
// same (provider, subject) identity.
func (srv *oauthService) ensureIdentityFree(ctx context.Context, provider entity.ProviderType, subject string, accountID uuid.UUID) error {
	existing, err := srv.accountRepo.FindByProviderSubject(ctx, provider, subject)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to check identity")
	}
	if existing.ID != accountID {
		return domainerrors.ErrOAuthFailed
	}

	return nil
}
