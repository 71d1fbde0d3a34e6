package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"linkhub/domain/dto"
	"linkhub/domain/model"
	"linkhub/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Insert(ctx context.Context, n *model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationStore) ListByUser(ctx context.Context, userID string, limit int64) ([]model.Notification, error) {
	args := m.Called(ctx, userID, limit)
	out, _ := args.Get(0).([]model.Notification)
	return out, args.Error(1)
}

type MockBus struct {
	mock.Mock
}

func (m *MockBus) Publish(ctx context.Context, payload []byte) error {
	return m.Called(ctx, payload).Error(0)
}

func TestNotification_StoresAndPublishes(t *testing.T) {
	store := &MockNotificationStore{}
	store.On("Insert", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.UserID == "u1" && n.Type == model.NotificationPostFailed && n.Priority == model.PriorityHigh &&
			n.Reference == "p1" && n.ID != "" && n.CreatedAt.Equal(t0)
	})).Return(nil).Once()
	bus := &MockBus{}
	var event dto.NotificationEvent
	bus.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		_ = json.Unmarshal(args.Get(1).([]byte), &event)
	}).Return(nil).Once()
	u := usecase.NewNotificationUsecase(store, bus, newClock(t0).Now)

	err := u.Notify(context.Background(), "u1", model.NotificationPostFailed, "Post failed", "details",
		model.NotifyOptions{Reference: "p1", Priority: model.PriorityHigh, ActionURL: "/posts/p1"})
	require.NoError(t, err)
	u.Wait()

	store.AssertExpectations(t)
	bus.AssertExpectations(t)
	assert.Equal(t, "u1", event.UserID)
	assert.Equal(t, "post_failed", event.Type)
	assert.Equal(t, "/posts/p1", event.ActionURL)
}

func TestNotification_DefaultsPriorityAndSwallowsBusErrors(t *testing.T) {
	store := &MockNotificationStore{}
	store.On("Insert", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.Priority == model.PriorityNormal
	})).Return(nil)
	bus := &MockBus{}
	bus.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	u := usecase.NewNotificationUsecase(store, bus, newClock(t0).Now)

	err := u.Notify(context.Background(), "u1", model.NotificationPostPublished, "t", "m", model.NotifyOptions{})
	u.Wait()
	assert.NoError(t, err)
	bus.AssertNumberOfCalls(t, "Publish", 1)
}

func TestNotification_StoreErrorIsReturned(t *testing.T) {
	store := &MockNotificationStore{}
	store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("mongo down"))
	bus := &MockBus{}
	u := usecase.NewNotificationUsecase(store, bus, newClock(t0).Now)

	err := u.Notify(context.Background(), "u1", model.NotificationPostRetry, "t", "m", model.NotifyOptions{})
	u.Wait()
	assert.Error(t, err)
	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestNotification_WithoutStoreOrBus(t *testing.T) {
	u := usecase.NewNotificationUsecase(nil, nil, newClock(t0).Now)

	assert.NoError(t, u.Notify(context.Background(), "u1", model.NotificationTokenExpiring, "t", "m", model.NotifyOptions{}))
	list, err := u.List(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNotification_ListClampsLimit(t *testing.T) {
	store := &MockNotificationStore{}
	store.On("ListByUser", mock.Anything, "u1", int64(50)).Return([]model.Notification{{ID: "n1"}}, nil).Once()
	store.On("ListByUser", mock.Anything, "u1", int64(200)).Return([]model.Notification{}, nil).Once()
	u := usecase.NewNotificationUsecase(store, nil, newClock(t0).Now)

	list, err := u.List(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = u.List(context.Background(), "u1", 5000)
	require.NoError(t, err)
	store.AssertExpectations(t)
}
