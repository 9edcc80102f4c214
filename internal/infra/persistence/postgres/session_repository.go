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

// sessionRepository implements the domain.SessionRepository interface.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create persists a new session.
func (repo *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	sessionM := fromSessionDomain(session)

	if err := repo.db.WithContext(ctx).Create(sessionM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create session")
	}

	session.ID = sessionM.ID
	session.CreatedAt = sessionM.CreatedAt

	return nil
}

// FindByDigest retrieves a session by its stored token digest. Rows past
// expiry are deleted eagerly and reported as expired.
func (repo *sessionRepository) FindByDigest(ctx context.Context, tokenDigest string) (*entity.Session, error) {
	var sessionM model.SessionModel
	if err := repo.db.WithContext(ctx).First(&sessionM, "token_digest = ?", tokenDigest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.WithStack(err)
	}

	if !sessionM.ExpiresAt.After(time.Now()) {
		_ = repo.db.WithContext(ctx).Delete(&model.SessionModel{}, "id = ?", sessionM.ID).Error

		return nil, repository.ErrSessionExpired
	}

	return toSessionDomain(&sessionM), nil
}

// FindByID retrieves a session by its unique ID.
func (repo *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var sessionM model.SessionModel
	if err := repo.db.WithContext(ctx).First(&sessionM, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toSessionDomain(&sessionM), nil
}

// FindByAccountID retrieves all non-expired sessions for an account, newest first.
func (repo *sessionRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entity.Session, error) {
	var sessionModels []*model.SessionModel
	err := repo.db.WithContext(ctx).
		Where("account_id = ? AND expires_at > ?", accountID, time.Now()).
		Order("created_at DESC").
		Find(&sessionModels).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sessions := make([]*entity.Session, 0, len(sessionModels))
	for _, sessionM := range sessionModels {
		sessions = append(sessions, toSessionDomain(sessionM))
	}

	return sessions, nil
}

// Touch refreshes the last-activity timestamp of a session.
func (repo *sessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("id = ?", id).
		Update("last_activity_at", at)
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// Delete removes a session by ID, ending that device's login.
func (repo *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Delete(&model.SessionModel{}, "id = ?", id)
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// DeleteByAccountID removes all sessions for an account, optionally keeping one.
func (repo *sessionRepository) DeleteByAccountID(ctx context.Context, accountID uuid.UUID, keep *uuid.UUID) (int, error) {
	query := repo.db.WithContext(ctx).Where("account_id = ?", accountID)
	if keep != nil {
		query = query.Where("id <> ?", *keep)
	}

	result := query.Delete(&model.SessionModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return int(result.RowsAffected), nil
}

// DeleteExpired removes all sessions past expiry, returning the count.
func (repo *sessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&model.SessionModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return int(result.RowsAffected), nil
}

// --- Mapper Functions ---

func toSessionDomain(data *model.SessionModel) *entity.Session {
	if data == nil {
		return nil
	}

	return &entity.Session{
		ID:          data.ID,
		AccountID:   data.AccountID,
		TokenDigest: data.TokenDigest,
		Device: entity.DeviceInfo{
			Browser:    data.Browser,
			OS:         data.OS,
			DeviceType: data.DeviceType,
		},
		IPAddress:      data.IPAddress,
		UserAgent:      data.UserAgent,
		LastActivityAt: data.LastActivityAt,
		ExpiresAt:      data.ExpiresAt,
		CreatedAt:      data.CreatedAt,
	}
}

func fromSessionDomain(data *entity.Session) *model.SessionModel {
	if data == nil {
		return nil
	}

	return &model.SessionModel{
		ID:             data.ID,
		AccountID:      data.AccountID,
		TokenDigest:    data.TokenDigest,
		Browser:        data.Device.Browser,
		OS:             data.Device.OS,
		DeviceType:     data.Device.DeviceType,
		IPAddress:      data.IPAddress,
		UserAgent:      data.UserAgent,
		LastActivityAt: data.LastActivityAt,
		ExpiresAt:      data.ExpiresAt,
	}
}
