package usecase

import (
	"context"

	"linkhub/domain/dto"
	"linkhub/domain/lifecycle"
	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/utils"

	"github.com/google/uuid"
)

const MaxPostList = 100

type IPostUsecase interface {
	Create(ctx context.Context, userID string, req dto.CreatePostRequest) (*model.Post, error)
	List(ctx context.Context, userID string, limit int) ([]model.Post, error)
	Get(ctx context.Context, userID, id string) (*model.Post, error)
	Update(ctx context.Context, userID, id string, req dto.UpdatePostRequest) (*model.Post, error)
	PublishNow(ctx context.Context, userID, id string) (*model.Post, error)
	Cancel(ctx context.Context, userID, id string) (*model.Post, error)
}

type PostUsecase struct {
	posts       repository.IPost
	broadcaster IPostBroadcaster
	now         utils.Clock
}

var _ IPostUsecase = (*PostUsecase)(nil)

func NewPostUsecase(posts repository.IPost, broadcaster IPostBroadcaster, now utils.Clock) *PostUsecase {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &PostUsecase{posts: posts, broadcaster: broadcaster, now: now}
}

func (u *PostUsecase) Create(ctx context.Context, userID string, req dto.CreatePostRequest) (*model.Post, error) {
	post, err := lifecycle.New(uuid.NewString(), lifecycle.Draft{
		UserID:      userID,
		Content:     req.Content,
		Media:       req.Media,
		Platforms:   req.Platforms,
		ScheduledAt: req.ScheduledAt,
		Title:       req.Title,
		Tags:        req.Tags,
		Visibility:  req.Visibility,
		CategoryID:  req.CategoryID,
	}, u.now())
	if err != nil {
		return nil, err
	}
	if err := u.posts.Create(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns the newest posts of userID, never more than MaxPostList
func (u *PostUsecase) List(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	if limit <= 0 || limit > MaxPostList {
		limit = MaxPostList
	}
	return u.posts.ListByUser(ctx, userID, limit)
}

// Get hides posts of other users behind ErrPostNotFound
func (u *PostUsecase) Get(ctx context.Context, userID, id string) (*model.Post, error) {
	post, err := u.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, model.ErrPostNotFound
	}
	return post, nil
}

func (u *PostUsecase) Update(ctx context.Context, userID, id string, req dto.UpdatePostRequest) (*model.Post, error) {
	return u.transition(ctx, userID, id, func(p model.Post) (model.Post, bool, error) {
		next, err := lifecycle.Edit(p, lifecycle.Changes{
			Content:     req.Content,
			Media:       req.Media,
			Platforms:   req.Platforms,
			ScheduledAt: req.ScheduledAt,
			Title:       req.Title,
			Tags:        req.Tags,
			Visibility:  req.Visibility,
			CategoryID:  req.CategoryID,
		}, u.now())
		return next, true, err
	})
}

func (u *PostUsecase) PublishNow(ctx context.Context, userID, id string) (*model.Post, error) {
	return u.transition(ctx, userID, id, func(p model.Post) (model.Post, bool, error) {
		return lifecycle.PublishNow(p, u.now())
	})
}

func (u *PostUsecase) Cancel(ctx context.Context, userID, id string) (*model.Post, error) {
	return u.transition(ctx, userID, id, func(p model.Post) (model.Post, bool, error) {
		next, err := lifecycle.Cancel(p, u.now())
		return next, true, err
	})
}

// transition loads the post, applies fn and writes the result guarded on the
// status that was read
func (u *PostUsecase) transition(ctx context.Context, userID, id string, fn func(model.Post) (model.Post, bool, error)) (*model.Post, error) {
	current, err := u.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	next, changed, err := fn(*current)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}
	if err := u.posts.Update(ctx, &next, current.Status); err != nil {
		return nil, err
	}
	if next.Status != current.Status && u.broadcaster != nil {
		u.broadcaster.BroadcastPostStatus(next)
	}
	return &next, nil
}
