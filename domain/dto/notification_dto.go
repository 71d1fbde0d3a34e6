package dto

import "time"

// NotificationEvent is the message handed to the event bus
type NotificationEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Reference string    `json:"reference,omitempty"`
	Priority  string    `json:"priority"`
	ActionURL string    `json:"action_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
