package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/logger"

	"golang.org/x/time/rate"
)

const (
	FailureTimeout = "timeout"
	FailurePanic   = "adapter panic"
)

var (
	errTimeout = errors.New(FailureTimeout)
	errPanic   = errors.New(FailurePanic)
)

// guarded decorates an adapter with a per call deadline, a per platform rate
// limit and panic recovery. Publish and FetchAnalytics keep their contract of
// never failing upward.
type guarded struct {
	inner   repository.IPlatformAdapter
	timeout time.Duration
	limiter *rate.Limiter
}

// Guard wraps adapter. ratePerMinute <= 0 leaves calls unthrottled.
func Guard(adapter repository.IPlatformAdapter, timeout time.Duration, ratePerMinute int) repository.IPlatformAdapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := rate.Inf
	if ratePerMinute > 0 {
		limit = rate.Limit(float64(ratePerMinute) / 60)
	}
	return &guarded{inner: adapter, timeout: timeout, limiter: rate.NewLimiter(limit, 1)}
}

func (g *guarded) Platform() model.Platform { return g.inner.Platform() }

func (g *guarded) AuthCodeURL(state string) string { return g.inner.AuthCodeURL(state) }

func (g *guarded) Exchange(ctx context.Context, code, state string) (repository.TokenGrant, error) {
	return call(ctx, g, "exchange", func(ctx context.Context) (repository.TokenGrant, error) {
		return g.inner.Exchange(ctx, code, state)
	})
}

func (g *guarded) RefreshToken(ctx context.Context, refreshToken string) (repository.TokenGrant, error) {
	grant, err := call(ctx, g, "refresh", func(ctx context.Context) (repository.TokenGrant, error) {
		return g.inner.RefreshToken(ctx, refreshToken)
	})
	if err != nil {
		return grant, fmt.Errorf("%w: %s: %w", model.ErrRefreshFailed, g.Platform(), err)
	}
	if grant.AccessToken == "" {
		return grant, fmt.Errorf("%w: %s: empty access token", model.ErrRefreshFailed, g.Platform())
	}
	return grant, nil
}

func (g *guarded) Publish(ctx context.Context, post model.Post, account model.SocialAccount) repository.PublishOutcome {
	out, err := call(ctx, g, "publish", func(ctx context.Context) (repository.PublishOutcome, error) {
		return g.inner.Publish(ctx, post, account), nil
	})
	if err != nil {
		return repository.PublishOutcome{Success: false, Error: err.Error()}
	}
	if !out.Success && out.Error == "" {
		out.Error = "publish failed"
	}
	return out
}

func (g *guarded) FetchProfile(ctx context.Context, accessToken string) (repository.Profile, error) {
	return call(ctx, g, "profile", func(ctx context.Context) (repository.Profile, error) {
		return g.inner.FetchProfile(ctx, accessToken)
	})
}

func (g *guarded) FetchAnalytics(ctx context.Context, account model.SocialAccount) []model.AnalyticsMetric {
	metrics, err := call(ctx, g, "analytics", func(ctx context.Context) ([]model.AnalyticsMetric, error) {
		return g.inner.FetchAnalytics(ctx, account), nil
	})
	if err != nil {
		return nil
	}
	return metrics
}

// call runs fn on its own goroutine so a stuck adapter cannot hold the caller
// past the deadline. The goroutine is abandoned on timeout; its result channel
// is buffered so it can still finish.
func call[T any](parent context.Context, g *guarded, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(parent, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return zero, errTimeout
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.GetLogger().WithFields(map[string]interface{}{
					"platform": g.inner.Platform(),
					"op":       op,
					"panic":    r,
				}).Error("platform adapter panicked")
				done <- result{err: errPanic}
			}
		}()
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		logger.GetLogger().WithFields(map[string]interface{}{
			"platform": g.inner.Platform(),
			"op":       op,
		}).Warn("platform adapter call timed out")
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, errTimeout
		}
		return zero, ctx.Err()
	}
}
