package main

import (
	"context"
	"log/slog"
	"os"

	"atrium/config"
	"atrium/internal/delivery"
	"atrium/internal/delivery/http"
	"atrium/internal/delivery/http/middleware"
	"atrium/internal/delivery/http/router/handler"
	"atrium/internal/delivery/worker"
	"atrium/internal/domain/service"
	"atrium/internal/infra/auth"
	"atrium/internal/infra/device"
	logs "atrium/internal/infra/log"
	"atrium/internal/infra/mail"
	"atrium/internal/infra/oauth"
	"atrium/internal/infra/persistence/postgres"
	"atrium/internal/infra/qrcode"
	"atrium/internal/infra/ratelimit"
	"atrium/internal/infra/securetoken"
	"atrium/internal/infra/state"
	"atrium/internal/infra/totp"
	"atrium/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewAccountRepository,
			postgres.NewSecurityTokenRepository,
			postgres.NewTwoFactorRepository,
			postgres.NewSessionRepository,
			postgres.NewLoginHistoryRepository,
			postgres.NewAuditRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			newStateStore,
			newRateLimiter,
			newPasswordHasher,
			newTOTPService,
			newQRCodeService,
			newMailer,
			newLinkTicketSigner,
			securetoken.NewCodec,
			totp.NewBackupCodeService,
			device.NewParser,
			oauth.NewProviders,
		),
	)
}

// newStateStore picks the shared Redis store when configured and falls back
// to the per-process in-memory store for single-instance deployments.
func newStateStore(cfg *config.Config, logger *slog.Logger) service.StateStore {
	if cfg.Redis != nil {
		logger.Info("Using Redis state store", slog.String("addr", cfg.Redis.Addr))

		return state.NewRedisStore(state.NewRedisClient(*cfg.Redis))
	}

	logger.Warn("Redis not configured, rate limits and OAuth state are per-process")

	return state.NewMemoryStore()
}

func newRateLimiter(cfg *config.Config, store service.StateStore) service.RateLimiter {
	return ratelimit.New(store, cfg.RateLimit)
}

func newPasswordHasher(cfg *config.Config) service.PasswordHasher {
	return auth.NewBcryptHasher(cfg.Auth.BcryptCost, cfg.PasswordStrength)
}

func newTOTPService(cfg *config.Config) service.TOTPService {
	return totp.NewTOTPService(cfg.TOTP)
}

// newQRCodeService creates the QR code renderer for TOTP provisioning URIs.
func newQRCodeService() service.QRCodeService {
	return qrcode.NewQRCodeService(256, "M")
}

func newMailer(cfg *config.Config, logger *slog.Logger) service.Mailer {
	return mail.NewLogMailer(logger, cfg.HTTP.BaseURL)
}

func newLinkTicketSigner(cfg *config.Config) (service.LinkTicketSigner, error) {
	return oauth.NewLinkTicketSigner(cfg.Auth.StateSecret, cfg.OAuth.LinkTicketTTL)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuditService,
			impl.NewAuthService,
			impl.NewPasswordService,
			impl.NewVerificationService,
			impl.NewTwoFactorService,
			impl.NewSessionService,
			impl.NewOAuthService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewPasswordHandler,
			handler.NewVerificationHandler,
			handler.NewTwoFactorHandler,
			handler.NewSessionHandler,
			handler.NewOAuthHandler,
			handler.NewAuditHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
