package postgres

import (
	"context"

	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/repository"
	"atrium/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// loginHistoryRepository implements the domain.LoginHistoryRepository interface.
type loginHistoryRepository struct {
	db *gorm.DB
}

// NewLoginHistoryRepository is the constructor for loginHistoryRepository.
func NewLoginHistoryRepository(db *gorm.DB) repository.LoginHistoryRepository {
	return &loginHistoryRepository{db: db}
}

// Record appends one attempt.
func (repo *loginHistoryRepository) Record(ctx context.Context, attempt *entity.LoginAttempt) error {
	attemptM := fromLoginAttemptDomain(attempt)

	if err := repo.db.WithContext(ctx).Create(attemptM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to record login attempt")
	}

	attempt.ID = attemptM.ID
	attempt.CreatedAt = attemptM.CreatedAt

	return nil
}

// FindRecentByAccountID returns the most recent attempts for an account, newest first.
func (repo *loginHistoryRepository) FindRecentByAccountID(ctx context.Context, accountID uuid.UUID, limit int) ([]*entity.LoginAttempt, error) {
	var attemptModels []*model.LoginAttemptModel
	err := repo.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attemptModels).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}

	attempts := make([]*entity.LoginAttempt, 0, len(attemptModels))
	for _, attemptM := range attemptModels {
		attempts = append(attempts, toLoginAttemptDomain(attemptM))
	}

	return attempts, nil
}

// --- Mapper Functions ---

func toLoginAttemptDomain(data *model.LoginAttemptModel) *entity.LoginAttempt {
	if data == nil {
		return nil
	}

	return &entity.LoginAttempt{
		ID:            data.ID,
		AccountID:     data.AccountID,
		Email:         data.Email,
		Success:       data.Success,
		FailureReason: data.FailureReason,
		IPAddress:     data.IPAddress,
		UserAgent:     data.UserAgent,
		Suspicious:    data.Suspicious,
		CreatedAt:     data.CreatedAt,
	}
}

func fromLoginAttemptDomain(data *entity.LoginAttempt) *model.LoginAttemptModel {
	if data == nil {
		return nil
	}

	return &model.LoginAttemptModel{
		ID:            data.ID,
		AccountID:     data.AccountID,
		Email:         data.Email,
		Success:       data.Success,
		FailureReason: data.FailureReason,
		IPAddress:     data.IPAddress,
		UserAgent:     data.UserAgent,
		Suspicious:    data.Suspicious,
	}
}
