// Package lifecycle holds the post state machine as pure functions.
// Every transition takes a Post value and the current time and returns the
// next value; persistence and notification are left to the caller.
package lifecycle

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"linkhub/domain/model"
)

const (
	MaxAttempts      = 3
	RetryDelay       = 60 * time.Second
	MaxContentLength = 5000
	MaxTitleLength   = 100
)

var visibilities = map[string]struct{}{"public": {}, "unlisted": {}, "private": {}}

// Draft carries the user supplied fields of a new post
type Draft struct {
	UserID      string
	Content     string
	Media       []model.Media
	Platforms   []string
	ScheduledAt string
	Title       string
	Tags        []string
	Visibility  string
	CategoryID  string
}

// Changes is a partial edit; nil fields are left untouched.
// An empty ScheduledAt clears the schedule.
type Changes struct {
	Content     *string
	Media       *[]model.Media
	Platforms   *[]string
	ScheduledAt *string
	Title       *string
	Tags        *[]string
	Visibility  *string
	CategoryID  *string
}

func (c Changes) touchesContent() bool {
	return c.Content != nil || c.Media != nil || c.Platforms != nil
}

// Notice describes a notification a transition asks the caller to emit
type Notice struct {
	Type     model.NotificationType
	Title    string
	Message  string
	Priority model.NotificationPriority
}

// Outcome is the result of settling a publish attempt
type Outcome struct {
	Post   model.Post
	Notice Notice
}

// New validates d and builds a draft or scheduled post
func New(id string, d Draft, now time.Time) (model.Post, error) {
	platforms, err := parsePlatforms(d.Platforms)
	if err != nil {
		return model.Post{}, err
	}
	p := model.Post{
		ID:         id,
		UserID:     d.UserID,
		Content:    strings.TrimSpace(d.Content),
		Media:      normalizeMedia(d.Media),
		Platforms:  platforms,
		Title:      strings.TrimSpace(d.Title),
		Tags:       d.Tags,
		Visibility: d.Visibility,
		CategoryID: d.CategoryID,
		Status:     model.PostStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if d.ScheduledAt != "" {
		at, err := parseSchedule(d.ScheduledAt, now)
		if err != nil {
			return model.Post{}, err
		}
		p.ScheduledAt = &at
		p.Status = model.PostStatusScheduled
	}
	if err := validate(&p); err != nil {
		return model.Post{}, err
	}
	return p, nil
}

// Edit applies c to p while the post is still editable
func Edit(p model.Post, c Changes, now time.Time) (model.Post, error) {
	switch {
	case p.Status == model.PostStatusCancelled:
		return p, fmt.Errorf("%w: post is cancelled", model.ErrInvalidTransition)
	case p.Status.ContentLocked():
		return p, fmt.Errorf("%w: status %s", model.ErrContentLocked, p.Status)
	}
	next := p.Clone()
	if c.touchesContent() {
		if c.Content != nil {
			next.Content = strings.TrimSpace(*c.Content)
		}
		if c.Media != nil {
			next.Media = normalizeMedia(*c.Media)
		}
		if c.Platforms != nil {
			platforms, err := parsePlatforms(*c.Platforms)
			if err != nil {
				return p, err
			}
			next.Platforms = platforms
		}
	}
	if c.Title != nil {
		next.Title = strings.TrimSpace(*c.Title)
	}
	if c.Tags != nil {
		next.Tags = append([]string(nil), (*c.Tags)...)
	}
	if c.Visibility != nil {
		next.Visibility = *c.Visibility
	}
	if c.CategoryID != nil {
		next.CategoryID = *c.CategoryID
	}
	if c.ScheduledAt != nil {
		if *c.ScheduledAt == "" {
			next.ScheduledAt = nil
			if next.Status == model.PostStatusScheduled {
				next.Status = model.PostStatusDraft
			}
		} else {
			at, err := parseSchedule(*c.ScheduledAt, now)
			if err != nil {
				return p, err
			}
			next.ScheduledAt = &at
			if next.Status == model.PostStatusDraft {
				next.Status = model.PostStatusScheduled
			}
		}
	}
	if err := validate(&next); err != nil {
		return p, err
	}
	next.UpdatedAt = now
	return next, nil
}

// Cancel soft-deletes a post that has not started publishing
func Cancel(p model.Post, now time.Time) (model.Post, error) {
	switch p.Status {
	case model.PostStatusDraft, model.PostStatusScheduled, model.PostStatusQueued, model.PostStatusFailed:
	default:
		return p, fmt.Errorf("%w: cannot cancel a %s post", model.ErrInvalidTransition, p.Status)
	}
	next := p.Clone()
	next.Status = model.PostStatusCancelled
	next.CancelledAt = &now
	next.UpdatedAt = now
	return next, nil
}

// IsDue reports whether the scheduler should queue p
func IsDue(p model.Post, now time.Time) bool {
	return p.Status == model.PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now)
}

// Queue moves a due scheduled post to the queue
func Queue(p model.Post, now time.Time) (model.Post, error) {
	if !IsDue(p, now) {
		return p, fmt.Errorf("%w: post %s is not due", model.ErrInvalidTransition, p.ID)
	}
	next := p.Clone()
	next.Status = model.PostStatusQueued
	next.QueuedAt = &now
	next.UpdatedAt = now
	return next, nil
}

// PublishNow queues a post on user request. The bool is false when the post
// was already queued and nothing changed.
func PublishNow(p model.Post, now time.Time) (model.Post, bool, error) {
	switch p.Status {
	case model.PostStatusQueued:
		return p, false, nil
	case model.PostStatusDraft, model.PostStatusScheduled, model.PostStatusFailed:
	default:
		return p, false, fmt.Errorf("%w: cannot publish a %s post", model.ErrInvalidTransition, p.Status)
	}
	next := p.Clone()
	if p.Status == model.PostStatusFailed {
		next.Attempts = 0
		next.LastError = nil
	}
	next.Status = model.PostStatusQueued
	next.QueuedAt = &now
	next.UpdatedAt = now
	return next, true, nil
}

// Claim marks a queued post as being published
func Claim(p model.Post, now time.Time) (model.Post, error) {
	if p.Status != model.PostStatusQueued {
		return p, fmt.Errorf("%w: cannot claim a %s post", model.ErrInvalidTransition, p.Status)
	}
	next := p.Clone()
	next.Status = model.PostStatusPublishing
	next.UpdatedAt = now
	return next, nil
}

// Settle decides the next state of a publishing post from its per-platform results
func Settle(p model.Post, results model.PublishResult, now time.Time) (Outcome, error) {
	if p.Status != model.PostStatusPublishing {
		return Outcome{Post: p}, fmt.Errorf("%w: cannot settle a %s post", model.ErrInvalidTransition, p.Status)
	}
	next := p.Clone()
	next.PublishResult = results
	if results.AllSucceeded() {
		next.Attempts++
		next.Status = model.PostStatusPublished
		next.PublishedAt = &now
		next.LastError = nil
		next.UpdatedAt = now
		return Outcome{Post: next, Notice: Notice{
			Type:     model.NotificationPostPublished,
			Title:    "Post published",
			Message:  fmt.Sprintf("Your post was published to %s.", joinPlatforms(p.Platforms)),
			Priority: model.PriorityNormal,
		}}, nil
	}
	return fail(next, encodeFailures(results), now), nil
}

// SettleError counts an unexpected error during publishing as a failed attempt
func SettleError(p model.Post, cause error, now time.Time) Outcome {
	next := p.Clone()
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return fail(next, msg, now)
}

func fail(next model.Post, lastError string, now time.Time) Outcome {
	next.Attempts++
	next.LastError = &lastError
	next.UpdatedAt = now
	if next.Attempts < MaxAttempts {
		retryAt := now.Add(RetryDelay)
		next.Status = model.PostStatusScheduled
		next.ScheduledAt = &retryAt
		return Outcome{Post: next, Notice: Notice{
			Type:     model.NotificationPostRetry,
			Title:    "Post will be retried",
			Message:  fmt.Sprintf("Publishing attempt %d of %d failed: %s", next.Attempts, MaxAttempts, lastError),
			Priority: model.PriorityLow,
		}}
	}
	next.Status = model.PostStatusFailed
	return Outcome{Post: next, Notice: Notice{
		Type:     model.NotificationPostFailed,
		Title:    "Post failed to publish",
		Message:  fmt.Sprintf("Publishing failed after %d attempts: %s", next.Attempts, lastError),
		Priority: model.PriorityHigh,
	}}
}

func encodeFailures(results model.PublishResult) string {
	raw, err := json.Marshal(results.Failures())
	if err != nil {
		return "publish failed"
	}
	return string(raw)
}

func validate(p *model.Post) error {
	if len(p.Platforms) == 0 {
		return model.NewValidationError("platforms", "at least one platform is required")
	}
	if p.Content == "" {
		return model.NewValidationError("content", "is required")
	}
	if n := len([]rune(p.Content)); n > MaxContentLength {
		return model.NewValidationError("content", fmt.Sprintf("must be at most %d characters, got %d", MaxContentLength, n))
	}
	for i, m := range p.Media {
		if strings.TrimSpace(m.URL) == "" {
			return model.NewValidationError(fmt.Sprintf("media[%d].url", i), "is required")
		}
		if !m.Kind.Valid() {
			return model.NewValidationError(fmt.Sprintf("media[%d].kind", i), "must be image, video, link or other")
		}
	}
	if p.HasPlatform(model.PlatformYouTube) {
		if p.Title == "" {
			return model.NewValidationError("title", "is required for youtube")
		}
		if len([]rune(p.Title)) > MaxTitleLength {
			return model.NewValidationError("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
		}
		if !hasVideo(p.Media) {
			return model.NewValidationError("media", "youtube requires a video attachment")
		}
		if p.Visibility == "" {
			p.Visibility = "public"
		}
		if _, ok := visibilities[p.Visibility]; !ok {
			return model.NewValidationError("visibility", "must be public, unlisted or private")
		}
	}
	return nil
}

func parsePlatforms(raw []string) ([]model.Platform, error) {
	if len(raw) == 0 {
		return nil, model.NewValidationError("platforms", "at least one platform is required")
	}
	seen := make(map[model.Platform]struct{}, len(raw))
	out := make([]model.Platform, 0, len(raw))
	for _, r := range raw {
		p, err := model.ParsePlatform(r)
		if err != nil {
			return nil, model.NewValidationError("platforms", err.Error())
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func parseSchedule(raw string, now time.Time) (time.Time, error) {
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, model.NewValidationError("scheduled_at", "must be an RFC3339 timestamp")
	}
	if !at.After(now) {
		return time.Time{}, model.NewValidationError("scheduled_at", "must be in the future")
	}
	return at.UTC(), nil
}

func normalizeMedia(in []model.Media) []model.Media {
	out := make([]model.Media, 0, len(in))
	for _, m := range in {
		m.URL = strings.TrimSpace(m.URL)
		if m.Kind == "" {
			m.Kind = model.MediaOther
		}
		out = append(out, m)
	}
	return out
}

func hasVideo(media []model.Media) bool {
	for _, m := range media {
		if m.Kind == model.MediaVideo {
			return true
		}
	}
	return false
}

func joinPlatforms(ps []model.Platform) string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
