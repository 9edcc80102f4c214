// Package worker runs the periodic maintenance jobs: expired session and
// token sweeping, and audit log retention pruning.
package worker

import (
	"context"
	"log/slog"
	"time"

	"atrium/config"
	"atrium/internal/delivery"
	"atrium/internal/usecase"

	"go.uber.org/fx"
)

type sweepWorker struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions usecase.SessionUsecase
	audit    usecase.AuditUsecase
	done     chan struct{}
}

// ServerParams holds dependencies for the maintenance worker
type ServerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Cfg      *config.Config
	Logger   *slog.Logger
	Sessions usecase.SessionUsecase
	Audit    usecase.AuditUsecase
}

// NewServer creates the maintenance worker. It shares the process with the
// HTTP server and stops with it.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	w := &sweepWorker{
		cfg:      params.Cfg,
		logger:   params.Logger,
		sessions: params.Sessions,
		audit:    params.Audit,
		done:     make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: w.stop,
	})

	return w, nil
}

// Serve blocks, waking on each sweep interval until the process stops.
func (w *sweepWorker) Serve(ctx context.Context) error {
	sessionTicker := time.NewTicker(w.cfg.Auth.SessionSweep)
	defer sessionTicker.Stop()
	auditTicker := time.NewTicker(w.cfg.Audit.Sweep)
	defer auditTicker.Stop()

	w.logger.Info("Starting maintenance worker",
		slog.Duration("session_sweep", w.cfg.Auth.SessionSweep),
		slog.Duration("audit_sweep", w.cfg.Audit.Sweep),
	)

	for {
		select {
		case <-w.done:
			return nil
		case <-ctx.Done():
			return nil
		case <-sessionTicker.C:
			w.sweepSessions(ctx)
		case <-auditTicker.C:
			w.pruneAudit(ctx)
		}
	}
}

func (w *sweepWorker) sweepSessions(ctx context.Context) {
	swept, err := w.sessions.Sweep(ctx)
	if err != nil {
		w.logger.Error("[Worker] Session sweep failed", slog.Any("error", err))

		return
	}
	if swept > 0 {
		w.logger.Info("[Worker] Swept expired sessions and tokens", slog.Int("count", swept))
	}
}

func (w *sweepWorker) pruneAudit(ctx context.Context) {
	pruned, err := w.audit.Prune(ctx)
	if err != nil {
		w.logger.Error("[Worker] Audit prune failed", slog.Any("error", err))

		return
	}
	if pruned > 0 {
		w.logger.Info("[Worker] Pruned audit entries past retention", slog.Int("count", pruned))
	}
}

// stop unblocks Serve.
func (w *sweepWorker) stop(ctx context.Context) error {
	w.logger.Info("Shutting down maintenance worker")
	close(w.done)

	return nil
}
