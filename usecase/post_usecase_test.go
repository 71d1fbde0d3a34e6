package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"linkhub/domain/dto"
	"linkhub/domain/model"
	"linkhub/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestPostUsecase_CreateDraftAndScheduled(t *testing.T) {
	posts := newMemPosts()
	u := usecase.NewPostUsecase(posts, nil, newClock(t0).Now)

	draft, err := u.Create(context.Background(), "u1", dto.CreatePostRequest{
		Content:   "  hello  ",
		Platforms: []string{"twitter", "linkedin"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, model.PostStatusDraft, draft.Status)
	assert.Equal(t, "hello", draft.Content)
	assert.Equal(t, "u1", posts.get(draft.ID).UserID)

	scheduled, err := u.Create(context.Background(), "u1", dto.CreatePostRequest{
		Content:     "later",
		Platforms:   []string{"facebook"},
		ScheduledAt: t0.Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusScheduled, scheduled.Status)
	require.NotNil(t, scheduled.ScheduledAt)
	assert.True(t, scheduled.ScheduledAt.Equal(t0.Add(time.Hour)))
}

func TestPostUsecase_CreateRejectsInvalidInput(t *testing.T) {
	u := usecase.NewPostUsecase(newMemPosts(), nil, newClock(t0).Now)

	tests := []struct {
		name string
		req  dto.CreatePostRequest
	}{
		{"no platforms", dto.CreatePostRequest{Content: "x"}},
		{"unknown platform", dto.CreatePostRequest{Content: "x", Platforms: []string{"myspace"}}},
		{"empty content", dto.CreatePostRequest{Content: "   ", Platforms: []string{"twitter"}}},
		{"past schedule", dto.CreatePostRequest{Content: "x", Platforms: []string{"twitter"}, ScheduledAt: t0.Add(-time.Minute).Format(time.RFC3339)}},
		{"bad timestamp", dto.CreatePostRequest{Content: "x", Platforms: []string{"twitter"}, ScheduledAt: "tomorrow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := u.Create(context.Background(), "u1", tt.req)
			require.Error(t, err)
			var verr *model.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestPostUsecase_GetHidesOtherUsersPosts(t *testing.T) {
	posts := newMemPosts(model.Post{ID: "p1", UserID: "owner", Status: model.PostStatusDraft})
	u := usecase.NewPostUsecase(posts, nil, newClock(t0).Now)

	_, err := u.Get(context.Background(), "intruder", "p1")
	assert.ErrorIs(t, err, model.ErrPostNotFound)

	got, err := u.Get(context.Background(), "owner", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
}

func TestPostUsecase_ListCapsLimit(t *testing.T) {
	var seed []model.Post
	for i := 0; i < 120; i++ {
		seed = append(seed, model.Post{
			ID:        fmt.Sprintf("p%03d", i),
			UserID:    "u1",
			Status:    model.PostStatusDraft,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		})
	}
	u := usecase.NewPostUsecase(newMemPosts(seed...), nil, newClock(t0).Now)

	all, err := u.List(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, usecase.MaxPostList)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "newest first")

	some, err := u.List(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.Len(t, some, 5)
}

func TestPostUsecase_PublishNowAndCancel(t *testing.T) {
	lastErr := "boom"
	posts := newMemPosts(
		model.Post{ID: "failed", UserID: "u1", Content: "x", Platforms: []model.Platform{model.PlatformTwitter},
			Status: model.PostStatusFailed, Attempts: 3, LastError: &lastErr},
		model.Post{ID: "cancelled", UserID: "u1", Content: "x", Platforms: []model.Platform{model.PlatformTwitter},
			Status: model.PostStatusCancelled},
		model.Post{ID: "draft", UserID: "u1", Content: "x", Platforms: []model.Platform{model.PlatformTwitter},
			Status: model.PostStatusDraft},
	)
	b := &recordingBroadcaster{}
	u := usecase.NewPostUsecase(posts, b, newClock(t0).Now)
	ctx := context.Background()

	queued, err := u.PublishNow(ctx, "u1", "failed")
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusQueued, queued.Status)
	assert.Zero(t, queued.Attempts)
	assert.Nil(t, queued.LastError)

	// already queued is a no-op
	again, err := u.PublishNow(ctx, "u1", "failed")
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusQueued, again.Status)

	_, err = u.PublishNow(ctx, "u1", "cancelled")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	cancelled, err := u.Cancel(ctx, "u1", "draft")
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, model.PostStatusCancelled, posts.get("draft").Status)

	_, err = u.Cancel(ctx, "u1", "cancelled")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	assert.Equal(t, []model.PostStatus{model.PostStatusQueued, model.PostStatusCancelled}, b.statuses)
}

func TestPostUsecase_UpdateRespectsLocks(t *testing.T) {
	posts := newMemPosts(
		model.Post{ID: "queued", UserID: "u1", Content: "x", Platforms: []model.Platform{model.PlatformTwitter},
			Status: model.PostStatusQueued},
		model.Post{ID: "draft", UserID: "u1", Content: "x", Platforms: []model.Platform{model.PlatformTwitter},
			Status: model.PostStatusDraft},
	)
	u := usecase.NewPostUsecase(posts, nil, newClock(t0).Now)
	ctx := context.Background()

	_, err := u.Update(ctx, "u1", "queued", dto.UpdatePostRequest{Content: strPtr("new")})
	assert.ErrorIs(t, err, model.ErrContentLocked)

	at := t0.Add(2 * time.Hour).Format(time.RFC3339)
	updated, err := u.Update(ctx, "u1", "draft", dto.UpdatePostRequest{Content: strPtr("new"), ScheduledAt: &at})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Content)
	assert.Equal(t, model.PostStatusScheduled, updated.Status)

	cleared, err := u.Update(ctx, "u1", "draft", dto.UpdatePostRequest{ScheduledAt: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusDraft, cleared.Status)
	assert.Nil(t, cleared.ScheduledAt)
}

func TestPostUsecase_ConcurrentChangeIsStale(t *testing.T) {
	posts := newMemPosts(model.Post{ID: "p1", UserID: "u1", Content: "x",
		Platforms: []model.Platform{model.PlatformTwitter}, Status: model.PostStatusScheduled, ScheduledAt: timePtr(t0.Add(time.Hour))})
	posts.beforeUpdate = func(id string) {
		posts.beforeUpdate = nil
		p := posts.get(id)
		p.Status = model.PostStatusQueued
		posts.set(p)
	}
	u := usecase.NewPostUsecase(posts, nil, newClock(t0).Now)

	_, err := u.Cancel(context.Background(), "u1", "p1")
	assert.ErrorIs(t, err, model.ErrStaleStatus)
	assert.Equal(t, model.PostStatusQueued, posts.get("p1").Status)
}
