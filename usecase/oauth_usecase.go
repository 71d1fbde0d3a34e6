package usecase

import (
	"context"
	"fmt"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/logger"
	"linkhub/infrastructure/utils"
)

const stateBytes = 32

type IOAuthUsecase interface {
	// Begin starts a connect flow and returns the provider consent URL with its state
	Begin(ctx context.Context, userID string, platform model.Platform) (authURL, state string, err error)
	// Callback finishes the flow started by Begin
	Callback(ctx context.Context, platform model.Platform, state, code string) (*model.SocialAccount, error)
}

type OAuthUsecase struct {
	states   repository.IOAuthState
	adapters repository.IPlatformRegistry
	tokens   ITokenStore
	now      utils.Clock
}

var _ IOAuthUsecase = (*OAuthUsecase)(nil)

func NewOAuthUsecase(states repository.IOAuthState, adapters repository.IPlatformRegistry, tokens ITokenStore, now utils.Clock) *OAuthUsecase {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &OAuthUsecase{states: states, adapters: adapters, tokens: tokens, now: now}
}

func (u *OAuthUsecase) Begin(ctx context.Context, userID string, platform model.Platform) (string, string, error) {
	adapter, ok := u.adapters.Get(platform)
	if !ok {
		return "", "", fmt.Errorf("%w: %s", model.ErrNoAdapter, platform)
	}
	state, err := utils.RandomToken(stateBytes)
	if err != nil {
		return "", "", fmt.Errorf("generate oauth state: %w", err)
	}
	if err := u.states.Save(ctx, &model.OAuthState{
		State:     state,
		UserID:    userID,
		Platform:  platform,
		CreatedAt: u.now(),
	}); err != nil {
		return "", "", err
	}
	return adapter.AuthCodeURL(state), state, nil
}

func (u *OAuthUsecase) Callback(ctx context.Context, platform model.Platform, state, code string) (*model.SocialAccount, error) {
	if state == "" {
		return nil, model.ErrInvalidState
	}
	pending, err := u.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if pending.Platform != platform {
		logger.GetLogger().WithFields(map[string]interface{}{
			"expected": pending.Platform,
			"got":      platform,
		}).Warn("OAuth callback for a different platform than requested")
		return nil, model.ErrInvalidState
	}
	if code == "" {
		return nil, model.NewValidationError("code", "authorization code is required")
	}
	adapter, ok := u.adapters.Get(platform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNoAdapter, platform)
	}
	grant, err := adapter.Exchange(ctx, code, state)
	if err != nil {
		return nil, fmt.Errorf("exchange %s code: %w", platform, err)
	}
	profile, err := adapter.FetchProfile(ctx, grant.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch %s profile: %w", platform, err)
	}
	account, err := u.tokens.UpsertFromOAuth(ctx, pending.UserID, platform, profile, grant)
	if err != nil {
		return nil, err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"user_id":  pending.UserID,
		"platform": platform,
		"handle":   account.Handle,
	}).Info("Social account connected")
	return account, nil
}
