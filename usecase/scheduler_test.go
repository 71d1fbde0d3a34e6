package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"linkhub/domain/model"
	"linkhub/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduledPost(id string, at time.Time) model.Post {
	return model.Post{
		ID:          id,
		UserID:      "u1",
		Content:     "c",
		Platforms:   []model.Platform{model.PlatformTwitter},
		ScheduledAt: timePtr(at),
		Status:      model.PostStatusScheduled,
		CreatedAt:   t0.Add(-24 * time.Hour),
	}
}

func TestScheduler_QueuesOnlyDuePosts(t *testing.T) {
	posts := newMemPosts(
		scheduledPost("due", t0.Add(-time.Minute)),
		scheduledPost("exact", t0),
		scheduledPost("future", t0.Add(time.Minute)),
	)
	b := &recordingBroadcaster{}
	s := usecase.NewScheduler(posts, b, newClock(t0).Now)

	n, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"due", "exact"} {
		got := posts.get(id)
		assert.Equal(t, model.PostStatusQueued, got.Status, id)
		require.NotNil(t, got.QueuedAt)
		assert.True(t, got.QueuedAt.Equal(t0))
	}
	assert.Equal(t, model.PostStatusScheduled, posts.get("future").Status)
	assert.Equal(t, []model.PostStatus{model.PostStatusQueued, model.PostStatusQueued}, b.statuses)
}

func TestScheduler_LostRaceIsSilent(t *testing.T) {
	posts := newMemPosts(scheduledPost("p1", t0.Add(-time.Minute)))
	posts.beforeUpdate = func(id string) {
		posts.beforeUpdate = nil
		p := posts.get(id)
		p.Status = model.PostStatusCancelled
		posts.set(p)
	}
	s := usecase.NewScheduler(posts, nil, newClock(t0).Now)

	n, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, model.PostStatusCancelled, posts.get("p1").Status)
}

func TestScheduler_IgnoresOtherStatuses(t *testing.T) {
	draft := scheduledPost("draft", t0.Add(-time.Hour))
	draft.Status = model.PostStatusDraft
	posts := newMemPosts(draft)
	s := usecase.NewScheduler(posts, nil, newClock(t0).Now)

	n, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, model.PostStatusDraft, posts.get("draft").Status)
}

func TestScheduler_QueuesEveryDuePostInOneTick(t *testing.T) {
	var seed []model.Post
	for i := 0; i < 750; i++ {
		seed = append(seed, scheduledPost(fmt.Sprintf("p%03d", i), t0.Add(-time.Duration(i+1)*time.Second)))
	}
	posts := newMemPosts(seed...)
	s := usecase.NewScheduler(posts, nil, newClock(t0).Now)

	n, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 750, n)
	assert.Equal(t, model.PostStatusQueued, posts.get("p749").Status)
}
