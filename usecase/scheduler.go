package usecase

import (
	"context"
	"errors"
	"fmt"

	"linkhub/domain/lifecycle"
	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/logger"
	"linkhub/infrastructure/utils"
)

// IPostBroadcaster pushes post status changes to connected clients
type IPostBroadcaster interface {
	BroadcastPostStatus(post model.Post)
}

// Scheduler promotes due posts to the publish queue
type Scheduler struct {
	posts       repository.IPost
	broadcaster IPostBroadcaster
	now         utils.Clock
}

func NewScheduler(posts repository.IPost, broadcaster IPostBroadcaster, now utils.Clock) *Scheduler {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &Scheduler{posts: posts, broadcaster: broadcaster, now: now}
}

// Run queues every scheduled post whose time has come, oldest first, in a
// single tick. It returns the number of posts queued.
func (s *Scheduler) Run(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.posts.FindDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find due posts: %w", err)
	}
	queued := 0
	for _, post := range due {
		if ctx.Err() != nil {
			return queued, ctx.Err()
		}
		next, err := lifecycle.Queue(post, now)
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"error": err, "post_id": post.ID}).Warn("Skipping post that is not due")
			continue
		}
		if err := s.posts.Update(ctx, &next, model.PostStatusScheduled); err != nil {
			// someone else moved it first
			if errors.Is(err, model.ErrStaleStatus) {
				continue
			}
			logger.GetLogger().WithFields(map[string]interface{}{"error": err, "post_id": post.ID}).Error("Failed to queue post")
			continue
		}
		queued++
		if s.broadcaster != nil {
			s.broadcaster.BroadcastPostStatus(next)
		}
	}
	if queued > 0 {
		logger.GetLogger().WithField("queued", queued).Info("Scheduler queued due posts")
	}
	return queued, nil
}
