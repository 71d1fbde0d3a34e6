package social

import (
	"context"
	"fmt"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/clients/platform"
	"linkhub/infrastructure/configuration"

	"github.com/carlmjohnson/requests"
	"golang.org/x/oauth2"
)

var linkedInEndpoint = oauth2.Endpoint{
	AuthURL:   "https://www.linkedin.com/oauth/v2/authorization",
	TokenURL:  "https://www.linkedin.com/oauth/v2/accessToken",
	AuthStyle: oauth2.AuthStyleInParams,
}

// LinkedIn shares on the member's own feed through the UGC API. Post level
// analytics need partner access, so FetchAnalytics reports nothing.
type LinkedIn struct {
	oauth   *platform.OAuth
	BaseURL string
}

var _ repository.IPlatformAdapter = (*LinkedIn)(nil)

func NewLinkedIn(client configuration.OAuthClient) *LinkedIn {
	return &LinkedIn{
		oauth:   platform.NewOAuth(client, linkedInEndpoint, "openid", "profile", "w_member_social"),
		BaseURL: "https://api.linkedin.com",
	}
}

func (l *LinkedIn) Platform() model.Platform { return model.PlatformLinkedIn }

func (l *LinkedIn) AuthCodeURL(state string) string { return l.oauth.AuthCodeURL(state) }

func (l *LinkedIn) Exchange(ctx context.Context, code, state string) (repository.TokenGrant, error) {
	return l.oauth.Exchange(ctx, code)
}

func (l *LinkedIn) RefreshToken(ctx context.Context, refreshToken string) (repository.TokenGrant, error) {
	return l.oauth.Refresh(ctx, refreshToken)
}

func (l *LinkedIn) api(path string) *requests.Builder {
	return requests.URL(baseURL(l.BaseURL, "https://api.linkedin.com")).Path(path)
}

func (l *LinkedIn) FetchProfile(ctx context.Context, accessToken string) (repository.Profile, error) {
	var res struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := l.api("/v2/userinfo").Bearer(accessToken).ToJSON(&res).Fetch(ctx); err != nil {
		return repository.Profile{}, fmt.Errorf("linkedin profile: %w", err)
	}
	handle := res.Email
	if handle == "" {
		handle = res.Name
	}
	return repository.Profile{ExternalAccountID: res.Sub, Handle: handle, DisplayName: res.Name}, nil
}

type ugcText struct {
	Text string `json:"text"`
}

type ugcMedia struct {
	Status      string `json:"status"`
	OriginalURL string `json:"originalUrl"`
}

type ugcShare struct {
	ShareCommentary    ugcText    `json:"shareCommentary"`
	ShareMediaCategory string     `json:"shareMediaCategory"`
	Media              []ugcMedia `json:"media,omitempty"`
}

type ugcPost struct {
	Author          string              `json:"author"`
	LifecycleState  string              `json:"lifecycleState"`
	SpecificContent map[string]ugcShare `json:"specificContent"`
	Visibility      map[string]string   `json:"visibility"`
}

func (l *LinkedIn) Publish(ctx context.Context, post model.Post, account model.SocialAccount) repository.PublishOutcome {
	if account.ExternalAccountID == "" {
		return failedMsg("linkedin member id unknown; reconnect the account")
	}
	share := ugcShare{ShareCommentary: ugcText{Text: post.Content}, ShareMediaCategory: "NONE"}
	if link, ok := firstMedia(post, model.MediaLink); ok {
		share.ShareMediaCategory = "ARTICLE"
		share.Media = []ugcMedia{{Status: "READY", OriginalURL: link.URL}}
	}
	body := ugcPost{
		Author:          "urn:li:person:" + account.ExternalAccountID,
		LifecycleState:  "PUBLISHED",
		SpecificContent: map[string]ugcShare{"com.linkedin.ugc.ShareContent": share},
		Visibility:      map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
	var res struct {
		ID string `json:"id"`
	}
	err := l.api("/v2/ugcPosts").
		Bearer(account.AccessToken).
		Header("X-Restli-Protocol-Version", "2.0.0").
		BodyJSON(&body).
		CheckStatus(200, 201).
		ToJSON(&res).
		Fetch(ctx)
	if err != nil {
		return failed(err)
	}
	if res.ID == "" {
		return failedMsg("linkedin returned no post id")
	}
	return succeeded(res.ID)
}

func (l *LinkedIn) FetchAnalytics(ctx context.Context, account model.SocialAccount) []model.AnalyticsMetric {
	return nil
}
