package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/utils"
)

// ITokenStore owns the lifecycle of connected social accounts
type ITokenStore interface {
	// FindValid returns the accounts of userID usable for publishing
	FindValid(ctx context.Context, userID string) ([]model.SocialAccount, error)
	FindByUserAndPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error)
	ListByUser(ctx context.Context, userID string) ([]model.SocialAccount, error)
	UpsertFromOAuth(ctx context.Context, userID string, platform model.Platform, profile repository.Profile, grant repository.TokenGrant) (*model.SocialAccount, error)
	// Revoke disconnects an account owned by userID
	Revoke(ctx context.Context, userID, accountID string) (*model.SocialAccount, error)
}

type TokenStore struct {
	accounts repository.ISocialAccount
	now      utils.Clock
}

var _ ITokenStore = (*TokenStore)(nil)

func NewTokenStore(accounts repository.ISocialAccount, now utils.Clock) *TokenStore {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &TokenStore{accounts: accounts, now: now}
}

func (s *TokenStore) FindValid(ctx context.Context, userID string) ([]model.SocialAccount, error) {
	all, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	valid := make([]model.SocialAccount, 0, len(all))
	for _, a := range all {
		if a.IsValid(now) {
			valid = append(valid, a)
		}
	}
	return valid, nil
}

func (s *TokenStore) FindByUserAndPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error) {
	return s.accounts.FindByUserAndPlatform(ctx, userID, platform)
}

func (s *TokenStore) ListByUser(ctx context.Context, userID string) ([]model.SocialAccount, error) {
	return s.accounts.ListByUser(ctx, userID)
}

// UpsertFromOAuth records a fresh connection. Reconnecting a revoked account
// brings it back to life with the new credentials.
func (s *TokenStore) UpsertFromOAuth(ctx context.Context, userID string, platform model.Platform, profile repository.Profile, grant repository.TokenGrant) (*model.SocialAccount, error) {
	if grant.AccessToken == "" {
		return nil, fmt.Errorf("oauth grant for %s has no access token", platform)
	}
	now := s.now()
	account := model.SocialAccount{
		UserID:   userID,
		Platform: platform,
	}
	existing, err := s.accounts.FindByUserAndPlatform(ctx, userID, platform)
	switch {
	case err == nil:
		account = *existing
	case !errors.Is(err, model.ErrAccountNotFound):
		return nil, err
	}

	account.ExternalAccountID = profile.ExternalAccountID
	account.Handle = profile.Handle
	account.DisplayName = profile.DisplayName
	account.ProfileMeta = profile.Meta
	account.AccessToken = grant.AccessToken
	if grant.RefreshToken != "" || account.RefreshToken == model.RevokedToken {
		account.RefreshToken = grant.RefreshToken
	}
	account.TokenExpiresAt = expiryFrom(grant, now)
	if len(grant.Scopes) > 0 {
		account.Scopes = strings.Join(grant.Scopes, " ")
	}
	account.IsActive = true
	account.IsRevoked = false
	account.RevokedAt = nil
	account.SyncStatus = model.SyncStatusIdle
	account.SyncError = nil
	account.LastSyncAt = &now
	account.LastExpiryNotifiedAt = nil
	account.UpdatedAt = now
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}

	if err := s.accounts.Upsert(ctx, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *TokenStore) Revoke(ctx context.Context, userID, accountID string) (*model.SocialAccount, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, model.ErrAccountNotFound
	}
	account.Revoke(s.now())
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// expiryFrom turns a relative lifetime into an absolute expiry. A grant
// without one yields no expiry, which reads as long lived.
func expiryFrom(grant repository.TokenGrant, now time.Time) *time.Time {
	if grant.ExpiresInSeconds <= 0 {
		return nil
	}
	t := now.Add(time.Duration(grant.ExpiresInSeconds) * time.Second)
	return &t
}
