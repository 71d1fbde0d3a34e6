package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"linkhub/domain/dto"
	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/logger"
	"linkhub/infrastructure/utils"

	"github.com/google/uuid"
)

const (
	busPublishTimeout      = 10 * time.Second
	defaultNotificationMax = 50
	maxNotificationPage    = 200
)

// INotifier delivers messages to a user. Callers treat delivery as best
// effort: errors are for logging only.
type INotifier interface {
	Notify(ctx context.Context, userID string, kind model.NotificationType, title, message string, opts model.NotifyOptions) error
}

type INotificationUsecase interface {
	INotifier
	List(ctx context.Context, userID string, limit int64) ([]model.Notification, error)
}

// NotificationUsecase stores notifications and fans them out to the event bus.
// A nil store logs instead of persisting and a nil bus skips the fan out.
type NotificationUsecase struct {
	store repository.INotification
	bus   repository.IEventPublisher
	now   utils.Clock
	wg    sync.WaitGroup
}

var _ INotificationUsecase = (*NotificationUsecase)(nil)

func NewNotificationUsecase(store repository.INotification, bus repository.IEventPublisher, now utils.Clock) *NotificationUsecase {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &NotificationUsecase{store: store, bus: bus, now: now}
}

func (u *NotificationUsecase) Notify(ctx context.Context, userID string, kind model.NotificationType, title, message string, opts model.NotifyOptions) error {
	priority := opts.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Reference: opts.Reference,
		Priority:  priority,
		ActionURL: opts.ActionURL,
		CreatedAt: u.now(),
	}
	if u.store == nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"user_id": userID, "type": kind, "title": title,
		}).Info("notification (no store configured)")
	} else if err := u.store.Insert(ctx, n); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to store notification")
		return err
	}
	u.publish(n)
	return nil
}

// publish hands the event to the bus on its own goroutine; delivery is never awaited
func (u *NotificationUsecase) publish(n *model.Notification) {
	if u.bus == nil {
		return
	}
	payload, err := json.Marshal(dto.NotificationEvent{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Reference: n.Reference,
		Priority:  string(n.Priority),
		ActionURL: n.ActionURL,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to encode notification event")
		return
	}
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), busPublishTimeout)
		defer cancel()
		if err := u.bus.Publish(ctx, payload); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"error":           err,
				"notification_id": n.ID,
			}).Warn("Failed to publish notification event")
		}
	}()
}

// Wait blocks until in-flight bus publishes finish
func (u *NotificationUsecase) Wait() {
	u.wg.Wait()
}

func (u *NotificationUsecase) List(ctx context.Context, userID string, limit int64) ([]model.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationMax
	}
	if limit > maxNotificationPage {
		limit = maxNotificationPage
	}
	if u.store == nil {
		return []model.Notification{}, nil
	}
	return u.store.ListByUser(ctx, userID, limit)
}
