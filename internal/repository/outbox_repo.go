package repository

import (
	"context"

	"bankapp/internal/apperr"
	"bankapp/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Create(ctx context.Context, msg *model.OutboxMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return apperr.Internal("写入发件箱失败", err)
	}
	return nil
}

func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	var messages []*model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, apperr.Internal("查询发件箱失败", err)
	}
	return messages, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Update("status", model.OutboxStatusSent).Error
	if err != nil {
		return apperr.Internal("更新发件箱状态失败", err)
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.OutboxStatusFailed,
			"retry_count": gorm.Expr("retry_count + 1"),
		}).Error
	if err != nil {
		return apperr.Internal("更新发件箱状态失败", err)
	}
	return nil
}

func (r *OutboxRepository) IncrementRetry(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		UpdateColumn("retry_count", gorm.Expr("retry_count + 1")).Error
	if err != nil {
		return apperr.Internal("更新发件箱重试次数失败", err)
	}
	return nil
}
