package social

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/clients/platform"
	"linkhub/infrastructure/configuration"

	"github.com/carlmjohnson/requests"
	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"
)

const tiktokTitleMax = 2200

var tiktokEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.tiktok.com/v2/auth/authorize/",
	TokenURL: "https://open.tiktokapis.com/v2/oauth/token/",
}

// TikTok names its client id client_key and joins scopes with commas, so only
// the authorize URL goes through oauth2; token calls are made directly.
type TikTok struct {
	oauth        *platform.OAuth
	clientKey    string
	clientSecret string
	redirectURI  string
	BaseURL      string
}

var _ repository.IPlatformAdapter = (*TikTok)(nil)

func NewTikTok(client configuration.OAuthClient) *TikTok {
	return &TikTok{
		oauth:        platform.NewOAuth(client, tiktokEndpoint),
		clientKey:    client.ClientID,
		clientSecret: client.ClientSecret,
		redirectURI:  client.RedirectURI,
		BaseURL:      "https://open.tiktokapis.com",
	}
}

func (t *TikTok) Platform() model.Platform { return model.PlatformTikTok }

func (t *TikTok) scopes() string {
	if len(t.oauth.Config.Scopes) > 0 {
		return strings.Join(t.oauth.Config.Scopes, ",")
	}
	return "user.info.basic,video.publish,video.list"
}

func (t *TikTok) AuthCodeURL(state string) string {
	return t.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("client_key", t.clientKey),
		oauth2.SetAuthURLParam("scope", t.scopes()),
	)
}

func (t *TikTok) api(path string) *requests.Builder {
	return requests.URL(baseURL(t.BaseURL, "https://open.tiktokapis.com")).Path(path)
}

type tiktokTokenForm struct {
	ClientKey    string `url:"client_key"`
	ClientSecret string `url:"client_secret"`
	GrantType    string `url:"grant_type"`
	Code         string `url:"code,omitempty"`
	RedirectURI  string `url:"redirect_uri,omitempty"`
	RefreshToken string `url:"refresh_token,omitempty"`
}

func (t *TikTok) token(ctx context.Context, form tiktokTokenForm) (repository.TokenGrant, error) {
	form.ClientKey = t.clientKey
	form.ClientSecret = t.clientSecret
	values, err := query.Values(form)
	if err != nil {
		return repository.TokenGrant{}, err
	}
	var res struct {
		AccessToken      string `json:"access_token"`
		RefreshToken     string `json:"refresh_token"`
		ExpiresIn        int64  `json:"expires_in"`
		Scope            string `json:"scope"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := t.api("/v2/oauth/token/").BodyForm(values).ToJSON(&res).Fetch(ctx); err != nil {
		return repository.TokenGrant{}, fmt.Errorf("tiktok token: %w", err)
	}
	if res.Error != "" {
		return repository.TokenGrant{}, fmt.Errorf("tiktok token: %s: %s", res.Error, res.ErrorDescription)
	}
	return repository.TokenGrant{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		ExpiresInSeconds: res.ExpiresIn,
		Scopes:           platform.SplitScopes(res.Scope),
	}, nil
}

func (t *TikTok) Exchange(ctx context.Context, code, state string) (repository.TokenGrant, error) {
	if code == "" {
		return repository.TokenGrant{}, fmt.Errorf("missing authorization code")
	}
	return t.token(ctx, tiktokTokenForm{GrantType: "authorization_code", Code: code, RedirectURI: t.redirectURI})
}

func (t *TikTok) RefreshToken(ctx context.Context, refreshToken string) (repository.TokenGrant, error) {
	if refreshToken == "" {
		return repository.TokenGrant{}, fmt.Errorf("no refresh token")
	}
	return t.token(ctx, tiktokTokenForm{GrantType: "refresh_token", RefreshToken: refreshToken})
}

// tiktokError is the envelope every open API response carries
type tiktokError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e tiktokError) err() error {
	if e.Code == "" || e.Code == "ok" {
		return nil
	}
	return fmt.Errorf("tiktok %s: %s", e.Code, e.Message)
}

func (t *TikTok) FetchProfile(ctx context.Context, accessToken string) (repository.Profile, error) {
	var res struct {
		Data struct {
			User struct {
				OpenID      string `json:"open_id"`
				Username    string `json:"username"`
				DisplayName string `json:"display_name"`
			} `json:"user"`
		} `json:"data"`
		Error tiktokError `json:"error"`
	}
	rb, err := withQuery(t.api("/v2/user/info/").Bearer(accessToken), fieldsOptions{Fields: "open_id,username,display_name"})
	if err != nil {
		return repository.Profile{}, err
	}
	if err := rb.ToJSON(&res).Fetch(ctx); err != nil {
		return repository.Profile{}, fmt.Errorf("tiktok profile: %w", err)
	}
	if err := res.Error.err(); err != nil {
		return repository.Profile{}, err
	}
	u := res.Data.User
	return repository.Profile{ExternalAccountID: u.OpenID, Handle: u.Username, DisplayName: u.DisplayName}, nil
}

type tiktokPostInfo struct {
	Title         string `json:"title"`
	PrivacyLevel  string `json:"privacy_level"`
	DisableDuet   bool   `json:"disable_duet"`
	DisableStitch bool   `json:"disable_stitch"`
}

type tiktokSourceInfo struct {
	Source   string `json:"source"`
	VideoURL string `json:"video_url"`
}

func (t *TikTok) Publish(ctx context.Context, post model.Post, account model.SocialAccount) repository.PublishOutcome {
	video, ok := firstMedia(post, model.MediaVideo)
	if !ok {
		return failedMsg("tiktok requires a video")
	}
	title := post.Content
	if utf8.RuneCountInString(title) > tiktokTitleMax {
		title = string([]rune(title)[:tiktokTitleMax])
	}
	privacy := "PUBLIC_TO_EVERYONE"
	if post.Visibility == "private" {
		privacy = "SELF_ONLY"
	}
	body := struct {
		PostInfo   tiktokPostInfo   `json:"post_info"`
		SourceInfo tiktokSourceInfo `json:"source_info"`
	}{
		PostInfo:   tiktokPostInfo{Title: title, PrivacyLevel: privacy},
		SourceInfo: tiktokSourceInfo{Source: "PULL_FROM_URL", VideoURL: video.URL},
	}
	var res struct {
		Data struct {
			PublishID string `json:"publish_id"`
		} `json:"data"`
		Error tiktokError `json:"error"`
	}
	err := t.api("/v2/post/publish/video/init/").
		Bearer(account.AccessToken).
		BodyJSON(&body).
		ToJSON(&res).
		Fetch(ctx)
	if err != nil {
		return failed(err)
	}
	if err := res.Error.err(); err != nil {
		return failed(err)
	}
	if res.Data.PublishID == "" {
		return failedMsg("tiktok returned no publish id")
	}
	return succeeded(res.Data.PublishID)
}

func (t *TikTok) FetchAnalytics(ctx context.Context, account model.SocialAccount) []model.AnalyticsMetric {
	rb, err := withQuery(t.api("/v2/video/list/").Bearer(account.AccessToken),
		fieldsOptions{Fields: "id,view_count,like_count,comment_count,share_count"})
	if err != nil {
		return nil
	}
	var res struct {
		Data struct {
			Videos []struct {
				ID           string `json:"id"`
				ViewCount    int64  `json:"view_count"`
				LikeCount    int64  `json:"like_count"`
				CommentCount int64  `json:"comment_count"`
				ShareCount   int64  `json:"share_count"`
			} `json:"videos"`
		} `json:"data"`
		Error tiktokError `json:"error"`
	}
	err = rb.BodyJSON(map[string]int{"max_count": analyticsPageSize}).ToJSON(&res).Fetch(ctx)
	if err != nil || res.Error.err() != nil {
		return nil
	}
	now := time.Now().UTC()
	out := make([]model.AnalyticsMetric, 0, len(res.Data.Videos))
	for _, v := range res.Data.Videos {
		out = append(out, model.AnalyticsMetric{
			ExternalPostID: v.ID,
			Metrics: map[string]int64{
				"views":    v.ViewCount,
				"likes":    v.LikeCount,
				"comments": v.CommentCount,
				"shares":   v.ShareCount,
			},
			RecordedAt: now,
		})
	}
	return out
}
