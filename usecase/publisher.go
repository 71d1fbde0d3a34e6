package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"linkhub/domain/lifecycle"
	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/logger"
	"linkhub/infrastructure/utils"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPublisherBatch = 10

	errNoAdapter = "no publisher configured"
	errNoAccount = "no connected account / invalid token"
)

// Publisher drains the queue. Posts of one tick are handled one after another;
// the platforms of a post are published concurrently.
type Publisher struct {
	posts       repository.IPost
	accounts    repository.ISocialAccount
	adapters    repository.IPlatformRegistry
	notifier    INotifier
	broadcaster IPostBroadcaster
	now         utils.Clock
	batchSize   int
}

func NewPublisher(posts repository.IPost, accounts repository.ISocialAccount, adapters repository.IPlatformRegistry, notifier INotifier, broadcaster IPostBroadcaster, now utils.Clock) *Publisher {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &Publisher{
		posts:       posts,
		accounts:    accounts,
		adapters:    adapters,
		notifier:    notifier,
		broadcaster: broadcaster,
		now:         now,
		batchSize:   DefaultPublisherBatch,
	}
}

func (p *Publisher) WithBatchSize(n int) *Publisher {
	if n > 0 {
		p.batchSize = n
	}
	return p
}

// Run processes one batch of queued posts and returns how many it settled
func (p *Publisher) Run(ctx context.Context) (int, error) {
	batch, err := p.posts.FindQueued(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("find queued posts: %w", err)
	}
	settled := 0
	for _, post := range batch {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		ok, err := p.process(ctx, post)
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"error": err, "post_id": post.ID}).Error("Failed to process queued post")
		}
		if ok {
			settled++
		}
	}
	return settled, nil
}

// process claims, publishes and settles a single post. It reports whether the
// post was settled; losing the claim race is not an error.
func (p *Publisher) process(ctx context.Context, post model.Post) (settled bool, err error) {
	claimed, err := lifecycle.Claim(post, p.now())
	if err != nil {
		return false, err
	}
	if err := p.posts.Update(ctx, &claimed, model.PostStatusQueued); err != nil {
		if errors.Is(err, model.ErrStaleStatus) {
			return false, nil
		}
		return false, err
	}
	p.broadcast(claimed)

	defer func() {
		if r := recover(); r != nil {
			settled, err = p.finish(ctx, lifecycle.SettleError(claimed, fmt.Errorf("publisher panic: %v", r), p.now()))
		}
	}()

	results := p.fanOut(ctx, claimed)
	outcome, err := lifecycle.Settle(claimed, results, p.now())
	if err != nil {
		outcome = lifecycle.SettleError(claimed, err, p.now())
	}
	return p.finish(ctx, outcome)
}

func (p *Publisher) fanOut(ctx context.Context, post model.Post) model.PublishResult {
	results := make(model.PublishResult, len(post.Platforms))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, platform := range post.Platforms {
		g.Go(func() error {
			res := p.publishTo(gctx, post, platform)
			mu.Lock()
			results[platform] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Publisher) publishTo(ctx context.Context, post model.Post, platform model.Platform) (res model.PlatformResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"panic": r, "post_id": post.ID, "platform": platform}).Error("Recovered panic while publishing")
			res = model.PlatformResult{Success: false, Error: fmt.Sprintf("publisher panic: %v", r)}
		}
	}()
	adapter, ok := p.adapters.Get(platform)
	if !ok {
		return model.PlatformResult{Success: false, Error: errNoAdapter}
	}
	account, err := p.accounts.FindByUserAndPlatform(ctx, post.UserID, platform)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.PlatformResult{Success: false, Error: errNoAccount}
		}
		return model.PlatformResult{Success: false, Error: err.Error()}
	}
	if !account.IsValid(p.now()) {
		return model.PlatformResult{Success: false, Error: errNoAccount}
	}
	return adapter.Publish(ctx, post, *account).Result()
}

// finish persists the settled post and tells the owner. The write is detached
// from ctx so a shutdown mid tick does not strand the post in publishing.
func (p *Publisher) finish(ctx context.Context, outcome lifecycle.Outcome) (bool, error) {
	wctx := context.WithoutCancel(ctx)
	post := outcome.Post
	if err := p.posts.Update(wctx, &post, model.PostStatusPublishing); err != nil {
		return false, fmt.Errorf("settle post %s: %w", post.ID, err)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"post_id":  post.ID,
		"status":   post.Status,
		"attempts": post.Attempts,
	}).Info("Post settled")
	if p.notifier != nil && outcome.Notice.Type != "" {
		if err := p.notifier.Notify(wctx, post.UserID, outcome.Notice.Type, outcome.Notice.Title, outcome.Notice.Message, model.NotifyOptions{
			Reference: post.ID,
			Priority:  outcome.Notice.Priority,
			ActionURL: "/posts/" + post.ID,
		}); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"error": err, "post_id": post.ID}).Warn("Failed to notify post owner")
		}
	}
	p.broadcast(post)
	return true, nil
}

func (p *Publisher) broadcast(post model.Post) {
	if p.broadcaster != nil {
		p.broadcaster.BroadcastPostStatus(post)
	}
}
