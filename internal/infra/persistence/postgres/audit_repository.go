package postgres

import (
	"context"
	"time"

	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/repository"
	"atrium/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

// auditRepository implements the domain.AuditRepository interface.
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository is the constructor for auditRepository.
func NewAuditRepository(db *gorm.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

// Create appends one entry.
func (repo *auditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	entryM := fromAuditEntryDomain(entry)

	if err := repo.db.WithContext(ctx).Create(entryM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create audit entry")
	}

	entry.ID = entryM.ID
	entry.CreatedAt = entryM.CreatedAt

	return nil
}

// List returns matching entries newest first plus the total match count.
func (repo *auditRepository) List(ctx context.Context, filter repository.AuditFilter) ([]*entity.AuditEntry, int64, error) {
	query := repo.db.WithContext(ctx).Model(&model.AuditLogModel{})

	if filter.TenantID != uuid.Nil {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at <= ?", filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	var entryModels []*model.AuditLogModel
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&entryModels).Error
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	entries := make([]*entity.AuditEntry, 0, len(entryModels))
	for _, entryM := range entryModels {
		entries = append(entries, toAuditEntryDomain(entryM))
	}

	return entries, total, nil
}

// DeleteOlderThan removes entries created before the cutoff.
func (repo *auditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result := repo.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.AuditLogModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return int(result.RowsAffected), nil
}

// --- Mapper Functions ---

func toAuditEntryDomain(data *model.AuditLogModel) *entity.AuditEntry {
	if data == nil {
		return nil
	}

	return &entity.AuditEntry{
		ID:         data.ID,
		TenantID:   data.TenantID,
		ActorID:    data.ActorID,
		Action:     data.Action,
		EntityType: data.EntityType,
		EntityID:   data.EntityID,
		Before:     data.Before,
		After:      data.After,
		IPAddress:  data.IPAddress,
		UserAgent:  data.UserAgent,
		CreatedAt:  data.CreatedAt,
	}
}

func fromAuditEntryDomain(data *entity.AuditEntry) *model.AuditLogModel {
	if data == nil {
		return nil
	}

	return &model.AuditLogModel{
		ID:         data.ID,
		TenantID:   data.TenantID,
		ActorID:    data.ActorID,
		Action:     data.Action,
		EntityType: data.EntityType,
		EntityID:   data.EntityID,
		Before:     data.Before,
		After:      data.After,
		IPAddress:  data.IPAddress,
		UserAgent:  data.UserAgent,
	}
}
