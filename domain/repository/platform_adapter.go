package repository

import (
	"context"

	"linkhub/domain/model"
)

// TokenGrant is what a provider hands back from a code exchange or a refresh.
// RefreshToken is empty when the provider did not rotate it.
type TokenGrant struct {
	AccessToken      string
	RefreshToken     string
	ExpiresInSeconds int64
	Scopes           []string
}

// PublishOutcome carries the platform post id on success or the error text on failure
type PublishOutcome struct {
	Success    bool
	ExternalID string
	Error      string
}

// Result converts the outcome into its stored form
func (o PublishOutcome) Result() model.PlatformResult {
	if o.Success {
		return model.PlatformResult{Success: true, Data: o.ExternalID}
	}
	return model.PlatformResult{Success: false, Error: o.Error}
}

// Profile identifies the remote account behind an access token
type Profile struct {
	ExternalAccountID string
	Handle            string
	DisplayName       string
	Meta              map[string]string
}

// IPlatformAdapter talks to one social network.
// Publish never returns an error; failures are reported in the outcome.
// FetchAnalytics is best effort and returns nothing on failure.
type IPlatformAdapter interface {
	Platform() model.Platform
	AuthCodeURL(state string) string
	// Exchange trades an authorization code; state is the value passed to AuthCodeURL
	Exchange(ctx context.Context, code, state string) (TokenGrant, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenGrant, error)
	Publish(ctx context.Context, post model.Post, account model.SocialAccount) PublishOutcome
	FetchProfile(ctx context.Context, accessToken string) (Profile, error)
	FetchAnalytics(ctx context.Context, account model.SocialAccount) []model.AnalyticsMetric
}

// IPlatformRegistry resolves the adapter for a platform
type IPlatformRegistry interface {
	Get(platform model.Platform) (IPlatformAdapter, bool)
	Platforms() []model.Platform
}
