package repository

import (
	"context"

	"linkhub/domain/model"
)

type IPostMetric interface {
	SaveAll(ctx context.Context, metrics []model.PostMetric) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]model.PostMetric, error)
}
