package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"

	"github.com/redis/go-redis/v9"
)

const oauthStatePrefix = "oauth:state:"

// stateStore is the part of redis.Cmdable the state cache needs
type stateStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// OAuthStateCache keeps OAuth connect state in Redis with a TTL. Consume uses
// GETDEL so a state can be redeemed once even with concurrent callbacks.
type OAuthStateCache struct {
	client stateStore
	ttl    time.Duration
	now    func() time.Time
}

func NewOAuthStateCache(client redis.Cmdable) *OAuthStateCache {
	return &OAuthStateCache{client: client, ttl: model.OAuthStateTTL, now: time.Now}
}

var _ repository.IOAuthState = (*OAuthStateCache)(nil)

func (c *OAuthStateCache) Save(ctx context.Context, state *model.OAuthState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode oauth state: %w", err)
	}
	return c.client.Set(ctx, oauthStatePrefix+state.State, raw, c.ttl).Err()
}

func (c *OAuthStateCache) Consume(ctx context.Context, state string) (*model.OAuthState, error) {
	if state == "" {
		return nil, model.ErrInvalidState
	}
	raw, err := c.client.GetDel(ctx, oauthStatePrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	var st model.OAuthState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidState, err)
	}
	// Redis expiry is the primary guard; this covers clock skew and keys written without a TTL
	if c.now().Sub(st.CreatedAt) > c.ttl {
		return nil, model.ErrInvalidState
	}
	return &st, nil
}
