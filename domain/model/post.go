package model

import "time"

// PostStatus is the lifecycle state of a post
type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusScheduled  PostStatus = "scheduled"
	PostStatusQueued     PostStatus = "queued"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
	PostStatusCancelled  PostStatus = "cancelled"
)

// Terminal reports whether no automatic transition may leave this status
func (s PostStatus) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusFailed || s == PostStatusCancelled
}

// ContentLocked reports whether content, media and platforms are frozen
func (s PostStatus) ContentLocked() bool {
	return s == PostStatusQueued || s == PostStatusPublishing || s == PostStatusPublished
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaLink  MediaKind = "link"
	MediaOther MediaKind = "other"
)

func (k MediaKind) Valid() bool {
	switch k {
	case MediaImage, MediaVideo, MediaLink, MediaOther:
		return true
	}
	return false
}

// Media is an attachment referenced by URL
type Media struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// PlatformResult is the outcome of publishing a post to one platform
type PlatformResult struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PublishResult maps each target platform to its latest outcome
type PublishResult map[Platform]PlatformResult

// AllSucceeded is false for an empty result
func (r PublishResult) AllSucceeded() bool {
	if len(r) == 0 {
		return false
	}
	for _, res := range r {
		if !res.Success {
			return false
		}
	}
	return true
}

// Failures returns only the failed platforms with their error text
func (r PublishResult) Failures() map[Platform]string {
	out := make(map[Platform]string)
	for p, res := range r {
		if !res.Success {
			out[p] = res.Error
		}
	}
	return out
}

// Post is the schedulable unit of work
type Post struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Content     string     `json:"content"`
	Media       []Media    `json:"media"`
	Platforms   []Platform `json:"platforms"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`

	// youtube only
	Title      string   `json:"title,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Visibility string   `json:"visibility,omitempty"`
	CategoryID string   `json:"category_id,omitempty"`

	Status        PostStatus    `json:"status"`
	Attempts      int           `json:"attempts"`
	LastError     *string       `json:"last_error,omitempty"`
	PublishResult PublishResult `json:"publish_result,omitempty"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
	QueuedAt      *time.Time    `json:"queued_at,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (p *Post) HasPlatform(platform Platform) bool {
	for _, t := range p.Platforms {
		if t == platform {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so transitions never alias the caller's slices
func (p Post) Clone() Post {
	out := p
	out.Media = append([]Media(nil), p.Media...)
	out.Platforms = append([]Platform(nil), p.Platforms...)
	out.Tags = append([]string(nil), p.Tags...)
	if p.PublishResult != nil {
		out.PublishResult = make(PublishResult, len(p.PublishResult))
		for k, v := range p.PublishResult {
			out.PublishResult[k] = v
		}
	}
	out.ScheduledAt = cloneTime(p.ScheduledAt)
	out.PublishedAt = cloneTime(p.PublishedAt)
	out.QueuedAt = cloneTime(p.QueuedAt)
	out.CancelledAt = cloneTime(p.CancelledAt)
	if p.LastError != nil {
		v := *p.LastError
		out.LastError = &v
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
