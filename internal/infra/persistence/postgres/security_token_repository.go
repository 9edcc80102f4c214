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

// securityTokenRepository implements the domain.SecurityTokenRepository interface.
type securityTokenRepository struct {
	db *gorm.DB
}

// NewSecurityTokenRepository is the constructor for securityTokenRepository.
func NewSecurityTokenRepository(db *gorm.DB) repository.SecurityTokenRepository {
	return &securityTokenRepository{db: db}
}

// Replace stores a token, removing any previous token of the same purpose
// for the same account so only the most recent link works.
func (repo *securityTokenRepository) Replace(ctx context.Context, token *entity.SecurityToken) error {
	err := repo.db.WithContext(ctx).
		Where("account_id = ? AND purpose = ?", token.AccountID, string(token.Purpose)).
		Delete(&model.SecurityTokenModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to clear previous token")
	}

	tokenM := fromSecurityTokenDomain(token)
	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create token")
	}

	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

// FindByDigest retrieves a token by purpose and stored digest.
func (repo *securityTokenRepository) FindByDigest(ctx context.Context, purpose entity.TokenPurpose, digest string) (*entity.SecurityToken, error) {
	var tokenM model.SecurityTokenModel
	err := repo.db.WithContext(ctx).
		First(&tokenM, "purpose = ? AND digest = ?", string(purpose), digest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTokenNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toSecurityTokenDomain(&tokenM), nil
}

// Delete removes a token, consuming it. The rows-affected check turns a
// concurrent double-consume into ErrTokenNotFound for the loser.
func (repo *securityTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.SecurityTokenModel{})
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrTokenNotFound
	}

	return nil
}

// DeleteExpired removes all tokens past their expiry, returning the count.
func (repo *securityTokenRepository) DeleteExpired(ctx context.Context) (int, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&model.SecurityTokenModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return int(result.RowsAffected), nil
}

// --- Mapper Functions ---

func toSecurityTokenDomain(data *model.SecurityTokenModel) *entity.SecurityToken {
	if data == nil {
		return nil
	}

	return &entity.SecurityToken{
		ID:        data.ID,
		AccountID: data.AccountID,
		Purpose:   entity.TokenPurpose(data.Purpose),
		Digest:    data.Digest,
		ExpiresAt: data.ExpiresAt,
		CreatedAt: data.CreatedAt,
	}
}

func fromSecurityTokenDomain(data *entity.SecurityToken) *model.SecurityTokenModel {
	if data == nil {
		return nil
	}

	return &model.SecurityTokenModel{
		ID:        data.ID,
		AccountID: data.AccountID,
		Purpose:   string(data.Purpose),
		Digest:    data.Digest,
		ExpiresAt: data.ExpiresAt,
	}
}
