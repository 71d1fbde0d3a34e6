package repository

import (
	"context"

	"linkhub/domain/model"
)

type INotification interface {
	Insert(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]model.Notification, error)
}

// IEventPublisher hands a serialized event to the message bus
type IEventPublisher interface {
	Publish(ctx context.Context, payload []byte) error
}
