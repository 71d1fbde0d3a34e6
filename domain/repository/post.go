package repository

import (
	"context"
	"time"

	"linkhub/domain/model"
)

// IPost persists posts. Update is conditional on the status the caller last
// observed and returns model.ErrStaleStatus when another writer got there first.
type IPost interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// ListByUser returns the newest posts first
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post, expected model.PostStatus) error
	// FindDue returns every scheduled post whose scheduled_at is not after now, oldest first
	FindDue(ctx context.Context, now time.Time) ([]model.Post, error)
	// FindQueued orders by scheduled_at asc with nulls last, then created_at
	FindQueued(ctx context.Context, limit int) ([]model.Post, error)
}
