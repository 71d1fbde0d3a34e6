package dto

import "linkhub/domain/model"

// CreatePostRequest is the body of POST /api/posts
type CreatePostRequest struct {
	Content     string        `json:"content" binding:"required"`
	Media       []model.Media `json:"media,omitempty"`
	Platforms   []string      `json:"platforms" binding:"required"`
	ScheduledAt string        `json:"scheduled_at,omitempty"` // RFC3339
	Title       string        `json:"title,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Visibility  string        `json:"visibility,omitempty"` // public, unlisted, private
	CategoryID  string        `json:"category_id,omitempty"`
}

// UpdatePostRequest is a partial edit; absent fields are left as they are.
// An empty scheduled_at clears the schedule.
type UpdatePostRequest struct {
	Content     *string        `json:"content,omitempty"`
	Media       *[]model.Media `json:"media,omitempty"`
	Platforms   *[]string      `json:"platforms,omitempty"`
	ScheduledAt *string        `json:"scheduled_at,omitempty"`
	Title       *string        `json:"title,omitempty"`
	Tags        *[]string      `json:"tags,omitempty"`
	Visibility  *string        `json:"visibility,omitempty"`
	CategoryID  *string        `json:"category_id,omitempty"`
}

// PostStatusEvent is streamed to clients whenever a post changes status
type PostStatusEvent struct {
	PostID   string           `json:"post_id"`
	Status   model.PostStatus `json:"status"`
	Attempts int              `json:"attempts"`
	Error    string           `json:"error,omitempty"`
}
