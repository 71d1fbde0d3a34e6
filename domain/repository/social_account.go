package repository

import (
	"context"
	"time"

	"linkhub/domain/model"
)

// ISocialAccount is the token store backing table, one row per (user, platform)
type ISocialAccount interface {
	GetByID(ctx context.Context, id string) (*model.SocialAccount, error)
	FindByUserAndPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialAccount, error)
	// ListByUser returns every account of the user, revoked ones included
	ListByUser(ctx context.Context, userID string) ([]model.SocialAccount, error)
	// ListActive returns accounts that are active and not revoked
	ListActive(ctx context.Context) ([]model.SocialAccount, error)
	// FindExpiring returns active, non revoked accounts with an expiry at or before cutoff
	FindExpiring(ctx context.Context, cutoff time.Time) ([]model.SocialAccount, error)
	// Upsert inserts or replaces the row for (user, platform) and fills in ID
	Upsert(ctx context.Context, account *model.SocialAccount) error
	Save(ctx context.Context, account *model.SocialAccount) error
}
