package usecase

import (
	"context"

	"atrium/internal/domain/entity"
	"atrium/internal/domain/repository"

	"github.com/google/uuid"
)

// AuditRecordInput describes one security-relevant event to append.
type AuditRecordInput struct {
	TenantID   uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Before     map[string]any
	After      map[string]any
	Client     ClientInfo
}

// AuditListOutput is one page of audit entries.
type AuditListOutput struct {
	Entries []*entity.AuditEntry
	Total   int64
	Page    int
	Limit   int
}

// Audit export formats.
const (
	AuditExportJSON = "json"
	AuditExportCSV  = "csv"
)

// AuditUsecase defines the audit log business operations.
type AuditUsecase interface {
	// Record appends one entry. It never returns an error: audit failures
	// are logged as warnings so they cannot abort the operation that
	// triggered them.
	Record(ctx context.Context, input AuditRecordInput)

	// List returns a filtered page of entries, newest first.
	List(ctx context.Context, filter repository.AuditFilter) (*AuditListOutput, error)

	// Export renders all matching entries as JSON or CSV, returning the
	// payload and its content type.
	Export(ctx context.Context, filter repository.AuditFilter, format string) ([]byte, string, error)

	// Prune deletes entries older than the retention period, returning
	// the count. Run by the daily retention sweep.
	Prune(ctx context.Context) (int, error)
}
