package model

import "time"

type NotificationType string

const (
	NotificationPostPublished      NotificationType = "post_published"
	NotificationPostRetry          NotificationType = "post_retry"
	NotificationPostFailed         NotificationType = "post_failed"
	NotificationTokenExpiring      NotificationType = "token_expiring"
	NotificationTokenRefreshFailed NotificationType = "token_refresh_failed"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// NotifyOptions are the optional attributes of a notification
type NotifyOptions struct {
	Reference string
	Priority  NotificationPriority
	ActionURL string
}

// Notification is a persisted message addressed to one user
type Notification struct {
	ID        string               `json:"id" bson:"_id"`
	UserID    string               `json:"user_id" bson:"userId"`
	Type      NotificationType     `json:"type" bson:"type"`
	Title     string               `json:"title" bson:"title"`
	Message   string               `json:"message" bson:"message"`
	Reference string               `json:"reference,omitempty" bson:"reference,omitempty"`
	Priority  NotificationPriority `json:"priority" bson:"priority"`
	ActionURL string               `json:"action_url,omitempty" bson:"actionUrl,omitempty"`
	Read      bool                 `json:"read" bson:"read"`
	CreatedAt time.Time            `json:"created_at" bson:"createdAt"`
}
