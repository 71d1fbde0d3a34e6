package social

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/clients/platform"
	"linkhub/infrastructure/configuration"

	"github.com/carlmjohnson/requests"
	"golang.org/x/oauth2"
)

const tweetMaxLength = 280

var twitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// Twitter publishes through the v2 API with OAuth 2.0 PKCE user tokens
type Twitter struct {
	oauth   *platform.OAuth
	secret  string
	BaseURL string
}

var _ repository.IPlatformAdapter = (*Twitter)(nil)

func NewTwitter(client configuration.OAuthClient) *Twitter {
	return &Twitter{
		oauth:   platform.NewOAuth(client, twitterEndpoint, "tweet.read", "tweet.write", "users.read", "offline.access"),
		secret:  client.ClientSecret,
		BaseURL: "https://api.twitter.com",
	}
}

func (t *Twitter) Platform() model.Platform { return model.PlatformTwitter }

// verifier derives the PKCE code verifier from the one-time state so nothing
// extra has to be stored between the redirect and the callback
func (t *Twitter) verifier(state string) string {
	mac := hmac.New(sha256.New, []byte(t.secret))
	mac.Write([]byte(state))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (t *Twitter) AuthCodeURL(state string) string {
	return t.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(t.verifier(state)))
}

func (t *Twitter) Exchange(ctx context.Context, code, state string) (repository.TokenGrant, error) {
	return t.oauth.Exchange(ctx, code, oauth2.VerifierOption(t.verifier(state)))
}

func (t *Twitter) RefreshToken(ctx context.Context, refreshToken string) (repository.TokenGrant, error) {
	return t.oauth.Refresh(ctx, refreshToken)
}

func (t *Twitter) Publish(ctx context.Context, post model.Post, account model.SocialAccount) repository.PublishOutcome {
	text := withLinks(post)
	if utf8.RuneCountInString(text) > tweetMaxLength {
		return failedMsg(fmt.Sprintf("content exceeds %d characters", tweetMaxLength))
	}
	var res struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	err := requests.URL(baseURL(t.BaseURL, "https://api.twitter.com")).
		Path("/2/tweets").
		Bearer(account.AccessToken).
		BodyJSON(map[string]string{"text": text}).
		CheckStatus(200, 201).
		ToJSON(&res).
		Fetch(ctx)
	if err != nil {
		return failed(err)
	}
	if res.Data.ID == "" {
		return failedMsg("twitter returned no tweet id")
	}
	return succeeded(res.Data.ID)
}

func (t *Twitter) FetchProfile(ctx context.Context, accessToken string) (repository.Profile, error) {
	var res struct {
		Data struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"data"`
	}
	err := requests.URL(baseURL(t.BaseURL, "https://api.twitter.com")).
		Path("/2/users/me").
		Bearer(accessToken).
		ToJSON(&res).
		Fetch(ctx)
	if err != nil {
		return repository.Profile{}, fmt.Errorf("twitter profile: %w", err)
	}
	return repository.Profile{
		ExternalAccountID: res.Data.ID,
		Handle:            res.Data.Username,
		DisplayName:       res.Data.Name,
	}, nil
}

type tweetListOptions struct {
	MaxResults  int    `url:"max_results"`
	TweetFields string `url:"tweet.fields"`
}

func (t *Twitter) FetchAnalytics(ctx context.Context, account model.SocialAccount) []model.AnalyticsMetric {
	if account.ExternalAccountID == "" {
		return nil
	}
	rb, err := withQuery(
		requests.URL(baseURL(t.BaseURL, "https://api.twitter.com")).
			Path(fmt.Sprintf("/2/users/%s/tweets", url.PathEscape(account.ExternalAccountID))).
			Bearer(account.AccessToken),
		tweetListOptions{MaxResults: analyticsPageSize, TweetFields: "public_metrics"},
	)
	if err != nil {
		return nil
	}
	var res struct {
		Data []struct {
			ID            string           `json:"id"`
			PublicMetrics map[string]int64 `json:"public_metrics"`
		} `json:"data"`
	}
	if err := rb.ToJSON(&res).Fetch(ctx); err != nil {
		return nil
	}
	now := time.Now().UTC()
	out := make([]model.AnalyticsMetric, 0, len(res.Data))
	for _, tw := range res.Data {
		out = append(out, model.AnalyticsMetric{ExternalPostID: tw.ID, Metrics: tw.PublicMetrics, RecordedAt: now})
	}
	return out
}
