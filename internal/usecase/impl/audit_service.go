// Package impl contains the implementation of the application's business logic.
package impl

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"atrium/config"
	deliverycontext "atrium/internal/delivery/context"
	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/repository"
	"atrium/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// auditService implements the AuditUsecase interface.
type auditService struct {
	auditRepo repository.AuditRepository
	retention time.Duration
	logger    *slog.Logger
}

// AuditServiceParams holds dependencies for AuditService, injected by Fx.
type AuditServiceParams struct {
	fx.In

	AuditRepo repository.AuditRepository
	Config    *config.Config
	Logger    *slog.Logger
}

// NewAuditService is the constructor for auditService.
func NewAuditService(params AuditServiceParams) usecase.AuditUsecase {
	return &auditService{
		auditRepo: params.AuditRepo,
		retention: params.Config.Audit.Retention,
		logger:    params.Logger,
	}
}

func (srv *auditService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Record appends one entry. Failures are demoted to warnings so an audit
// outage never aborts the operation being audited.
func (srv *auditService) Record(ctx context.Context, input usecase.AuditRecordInput) {
	entry := &entity.AuditEntry{
		TenantID:   input.TenantID,
		ActorID:    input.ActorID,
		Action:     input.Action,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Before:     input.Before,
		After:      input.After,
		IPAddress:  input.Client.IPAddress,
		UserAgent:  input.Client.UserAgent,
	}

	if err := srv.auditRepo.Create(ctx, entry); err != nil {
		srv.log(ctx).Warn("Failed to record audit entry",
			slog.String("action", input.Action),
			slog.Any("error", err),
		)
	}
}

// List returns a filtered page of entries, newest first.
func (srv *auditService) List(ctx context.Context, filter repository.AuditFilter) (*usecase.AuditListOutput, error) {
	entries, total, err := srv.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit entries")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	return &usecase.AuditListOutput{
		Entries: entries,
		Total:   total,
		Page:    page,
		Limit:   filter.Limit,
	}, nil
}

const exportPageSize = 500

// Export renders all matching entries as JSON or CSV.
func (srv *auditService) Export(ctx context.Context, filter repository.AuditFilter, format string) ([]byte, string, error) {
	if format != usecase.AuditExportJSON && format != usecase.AuditExportCSV {
		return nil, "", domainerrors.ErrValidationFailed.WrapMessage("unsupported export format: " + format)
	}

	var all []*entity.AuditEntry
	filter.Limit = exportPageSize
	for page := 1; ; page++ {
		filter.Page = page
		entries, total, err := srv.auditRepo.List(ctx, filter)
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to fetch audit entries for export")
		}
		all = append(all, entries...)
		if int64(len(all)) >= total || len(entries) == 0 {
			break
		}
	}

	if format == usecase.AuditExportJSON {
		data, err := json.MarshalIndent(exportViews(all), "", "  ")
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to marshal audit export")
		}

		return data, "application/json", nil
	}

	data, err := renderCSV(all)
	if err != nil {
		return nil, "", err
	}

	return data, "text/csv", nil
}

// Prune deletes entries older than the retention period.
func (srv *auditService) Prune(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-srv.retention)

	deleted, err := srv.auditRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune audit entries")
	}

	if deleted > 0 {
		srv.log(ctx).Info("Pruned audit entries",
			slog.Int("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	}

	return deleted, nil
}

// auditExportView flattens an entry for export.
type auditExportView struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   uuid.UUID      `json:"tenantId"`
	ActorID    *uuid.UUID     `json:"actorId,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType,omitempty"`
	EntityID   *uuid.UUID     `json:"entityId,omitempty"`
	Before     map[string]any `json:"before,omitempty"`
	After      map[string]any `json:"after,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func exportViews(entries []*entity.AuditEntry) []auditExportView {
	views := make([]auditExportView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, auditExportView{
			ID:         entry.ID,
			TenantID:   entry.TenantID,
			ActorID:    entry.ActorID,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Before:     entry.Before,
			After:      entry.After,
			IPAddress:  entry.IPAddress,
			UserAgent:  entry.UserAgent,
			CreatedAt:  entry.CreatedAt,
		})
	}

	return views
}

func renderCSV(entries []*entity.AuditEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"id", "tenant_id", "actor_id", "action", "entity_type", "entity_id", "before", "after", "ip_address", "user_agent", "created_at"}
	if err := writer.Write(header); err != nil {
		return nil, errors.Wrap(err, "failed to write csv header")
	}

	for _, entry := range entries {
		record := []string{
			entry.ID.String(),
			entry.TenantID.String(),
			uuidPtrString(entry.ActorID),
			entry.Action,
			entry.EntityType,
			uuidPtrString(entry.EntityID),
			jsonString(entry.Before),
			jsonString(entry.After),
			entry.IPAddress,
			entry.UserAgent,
			entry.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, errors.Wrap(err, "failed to write csv record")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to flush csv")
	}

	return buf.Bytes(), nil
}

func uuidPtrString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}

	return id.String()
}

func jsonString(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		return strconv.Quote("marshal error")
	}

	return string(data)
}
