package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskapi/internal/model"
)

type RefreshTokenRepositoryInterface interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

var _ RefreshTokenRepositoryInterface = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// FindByToken returns the session with its user, or nil, nil when the token is unknown.
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var stored model.RefreshToken
	err := r.db.WithContext(ctx).Preload("User").Where("token = ?", token).First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ExistsForUser reports whether the user holds any session row, expired or not.
func (r *RefreshTokenRepository) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ?", userID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.RefreshToken{}).Error
}

// DeleteByUserID ends every session of the user.
func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RefreshToken{})
	return result.RowsAffected, result.Error
}
