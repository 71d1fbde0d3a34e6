package repository

import (
	"context"

	"linkhub/domain/model"
)

// IOAuthState keeps short lived connect attempts. Consume removes the state so
// it can be redeemed only once; a missing or expired state yields model.ErrInvalidState.
type IOAuthState interface {
	Save(ctx context.Context, state *model.OAuthState) error
	Consume(ctx context.Context, state string) (*model.OAuthState, error)
}
