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
	"gorm.io/gorm/clause"
)

// twoFactorRepository implements the domain.TwoFactorRepository interface.
type twoFactorRepository struct {
	db *gorm.DB
}

// NewTwoFactorRepository is the constructor for twoFactorRepository.
func NewTwoFactorRepository(db *gorm.DB) repository.TwoFactorRepository {
	return &twoFactorRepository{db: db}
}

// Get retrieves the credential for an account, pending or enabled.
func (repo *twoFactorRepository) Get(ctx context.Context, accountID uuid.UUID) (*entity.TwoFactorCredential, error) {
	var credM model.TwoFactorCredentialModel
	if err := repo.db.WithContext(ctx).First(&credM, "account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTwoFactorNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toTwoFactorDomain(&credM), nil
}

// Save creates or updates the credential for an account.
func (repo *twoFactorRepository) Save(ctx context.Context, credential *entity.TwoFactorCredential) error {
	credM := fromTwoFactorDomain(credential)

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			UpdateAll: true,
		}).
		Create(credM).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to save two-factor credential")
	}

	credential.CreatedAt = credM.CreatedAt
	credential.UpdatedAt = credM.UpdatedAt

	return nil
}

// Delete removes the credential and all backup codes for an account.
func (repo *twoFactorRepository) Delete(ctx context.Context, accountID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&model.BackupCodeModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete backup codes")
	}

	result := repo.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&model.TwoFactorCredentialModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete two-factor credential")
	}
	if result.RowsAffected == 0 {
		return repository.ErrTwoFactorNotFound
	}

	return nil
}

// ReplaceBackupCodes atomically replaces the stored backup code digests.
func (repo *twoFactorRepository) ReplaceBackupCodes(ctx context.Context, accountID uuid.UUID, digests []string) error {
	err := repo.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&model.BackupCodeModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to clear backup codes")
	}

	if len(digests) == 0 {
		return nil
	}

	codes := make([]model.BackupCodeModel, 0, len(digests))
	for _, digest := range digests {
		codes = append(codes, model.BackupCodeModel{
			AccountID: accountID,
			Digest:    digest,
		})
	}
	if err := repo.db.WithContext(ctx).Create(&codes).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to store backup codes")
	}

	return nil
}

// ListBackupCodeDigests returns the digests of the remaining unused codes.
func (repo *twoFactorRepository) ListBackupCodeDigests(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	var digests []string
	err := repo.db.WithContext(ctx).
		Model(&model.BackupCodeModel{}).
		Where("account_id = ?", accountID).
		Pluck("digest", &digests).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return digests, nil
}

// ConsumeBackupCode deletes the row holding the given digest. The delete is
// the atomicity guarantee: of two concurrent requests presenting the same
// code, exactly one sees a row deleted.
func (repo *twoFactorRepository) ConsumeBackupCode(ctx context.Context, accountID uuid.UUID, digest string) (bool, error) {
	result := repo.db.WithContext(ctx).
		Where("account_id = ? AND digest = ?", accountID, digest).
		Delete(&model.BackupCodeModel{})
	if result.Error != nil {
		return false, errors.WithStack(result.Error)
	}

	return result.RowsAffected > 0, nil
}

// --- Mapper Functions ---

func toTwoFactorDomain(data *model.TwoFactorCredentialModel) *entity.TwoFactorCredential {
	if data == nil {
		return nil
	}

	return &entity.TwoFactorCredential{
		AccountID:  data.AccountID,
		Secret:     data.Secret,
		Enabled:    data.Enabled,
		VerifiedAt: data.VerifiedAt,
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
}

func fromTwoFactorDomain(data *entity.TwoFactorCredential) *model.TwoFactorCredentialModel {
	if data == nil {
		return nil
	}

	return &model.TwoFactorCredentialModel{
		AccountID:  data.AccountID,
		Secret:     data.Secret,
		Enabled:    data.Enabled,
		VerifiedAt: data.VerifiedAt,
	}
}
