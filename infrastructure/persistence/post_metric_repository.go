package persistence

import (
	"context"

	"linkhub/domain/model"
	"linkhub/domain/repository"

	"gorm.io/gorm"
)

type PostMetricRepository struct {
	db *gorm.DB
}

func NewPostMetricRepository(db *gorm.DB) *PostMetricRepository { return &PostMetricRepository{db: db} }

var _ repository.IPostMetric = (*PostMetricRepository)(nil)

func (r *PostMetricRepository) SaveAll(ctx context.Context, metrics []model.PostMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&metrics, 100).Error
}

func (r *PostMetricRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]model.PostMetric, error) {
	var out []model.PostMetric
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
