package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storepanel/internal/models"
)

func (r *GormRepo) FindTokenByUser(ctx context.Context, userID uuid.UUID) (*models.AuthToken, error) {
	var tok models.AuthToken
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&tok).Error; err != nil {
		return nil, err
	}
	return &tok, nil
}

func (r *GormRepo) GetToken(ctx context.Context, id uuid.UUID) (*models.AuthToken, error) {
	var tok models.AuthToken
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&tok).Error; err != nil {
		return nil, err
	}
	return &tok, nil
}

// ReplaceToken drops whatever token the user had and stores tok. A concurrent
// login for the same user surfaces as ErrDuplicate.
func (r *GormRepo) ReplaceToken(ctx context.Context, tok *models.AuthToken) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", tok.UserID).Delete(&models.AuthToken{}).Error; err != nil {
			return err
		}
		return tx.Create(tok).Error
	})
	return classify(err)
}

func (r *GormRepo) UpdateTokenHash(ctx context.Context, id uuid.UUID, keyHash string) error {
	return r.DB.WithContext(ctx).Model(&models.AuthToken{}).Where("id = ?", id).Update("key_hash", keyHash).Error
}

func (r *GormRepo) DeleteToken(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.AuthToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
