package repository

import (
	"context"
	"errors"
	"time"

	"bankapp/internal/apperr"
	"bankapp/internal/model"

	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return apperr.Internal("创建刷新令牌失败", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("刷新令牌", "token", token)
		}
		return nil, apperr.Internal("查询刷新令牌失败", err)
	}
	return &rt, nil
}

// RevokeAllByCustomerID 作废客户全部未过期令牌（登录时调用）
func (r *RefreshTokenRepository) RevokeAllByCustomerID(ctx context.Context, customerID int64) error {
	err := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("customer_id = ? AND revoked = ?", customerID, false).
		Update("revoked", true).Error
	if err != nil {
		return apperr.Internal("作废刷新令牌失败", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, token string) error {
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.RefreshToken{}).Error
	if err != nil {
		return apperr.Internal("删除刷新令牌失败", err)
	}
	return nil
}

// DeleteExpired 清理已过期或已作废的令牌，返回删除行数
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked = ?", now, true).
		Delete(&model.RefreshToken{})
	if result.Error != nil {
		return 0, apperr.Internal("清理刷新令牌失败", result.Error)
	}
	return result.RowsAffected, nil
}
