package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/clients/platform"
	"linkhub/infrastructure/configuration"

	"github.com/carlmjohnson/requests"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// defaultCategory is "People & Blogs"
const defaultCategory = "22"

// Client publishes videos through the YouTube Data API. A service is built per
// call from the account's access token; refreshing is left to the token
// refresher so the stored credentials stay the single source of truth.
type Client struct {
	oauth *platform.OAuth
	// Endpoint overrides the API base URL
	Endpoint string
}

var _ repository.IPlatformAdapter = (*Client)(nil)

func NewYouTubeClient(client configuration.OAuthClient) *Client {
	return &Client{
		oauth: platform.NewOAuth(client, google.Endpoint,
			youtube.YoutubeUploadScope,
			youtube.YoutubeReadonlyScope,
		),
	}
}

func (c *Client) Platform() model.Platform { return model.PlatformYouTube }

// AuthCodeURL asks for offline access with forced consent so Google always
// returns a refresh token
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (c *Client) Exchange(ctx context.Context, code, state string) (repository.TokenGrant, error) {
	return c.oauth.Exchange(ctx, code)
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (repository.TokenGrant, error) {
	return c.oauth.Refresh(ctx, refreshToken)
}

func (c *Client) service(ctx context.Context, accessToken string) (*youtube.Service, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return service, nil
}

// Publish streams the first video attachment from its URL into a resumable upload
func (c *Client) Publish(ctx context.Context, post model.Post, account model.SocialAccount) repository.PublishOutcome {
	var video model.Media
	for _, m := range post.Media {
		if m.Kind == model.MediaVideo {
			video = m
			break
		}
	}
	if video.URL == "" {
		return repository.PublishOutcome{Error: "youtube requires a video"}
	}
	if strings.TrimSpace(post.Title) == "" {
		return repository.PublishOutcome{Error: "youtube requires a title"}
	}

	service, err := c.service(ctx, account.AccessToken)
	if err != nil {
		return repository.PublishOutcome{Error: err.Error()}
	}

	privacy := post.Visibility
	if privacy == "" {
		privacy = "public"
	}
	category := post.CategoryID
	if category == "" {
		category = defaultCategory
	}
	upload := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       post.Title,
			Description: post.Content,
			Tags:        post.Tags,
			CategoryId:  category,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: privacy,
		},
	}

	var uploaded *youtube.Video
	err = requests.URL(video.URL).
		Handle(func(res *http.Response) error {
			defer res.Body.Close()
			var uErr error
			uploaded, uErr = service.Videos.Insert([]string{"snippet", "status"}, upload).
				Media(res.Body).
				Context(ctx).
				Do()
			return uErr
		}).
		Fetch(ctx)
	if err != nil {
		return repository.PublishOutcome{Error: fmt.Sprintf("failed to upload video: %v", err)}
	}
	if uploaded == nil || uploaded.Id == "" {
		return repository.PublishOutcome{Error: "youtube returned no video id"}
	}
	return repository.PublishOutcome{Success: true, ExternalID: uploaded.Id}
}

func (c *Client) FetchProfile(ctx context.Context, accessToken string) (repository.Profile, error) {
	service, err := c.service(ctx, accessToken)
	if err != nil {
		return repository.Profile{}, err
	}
	response, err := service.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return repository.Profile{}, fmt.Errorf("failed to get my channel: %w", err)
	}
	if len(response.Items) == 0 {
		return repository.Profile{}, fmt.Errorf("no channel found for authenticated user")
	}
	channel := response.Items[0]
	handle := channel.Snippet.CustomUrl
	if handle == "" {
		handle = channel.Snippet.Title
	}
	return repository.Profile{
		ExternalAccountID: channel.Id,
		Handle:            handle,
		DisplayName:       channel.Snippet.Title,
		Meta:              map[string]string{"channel_id": channel.Id},
	}, nil
}

// FetchAnalytics reads statistics for the channel's most recent uploads
func (c *Client) FetchAnalytics(ctx context.Context, account model.SocialAccount) []model.AnalyticsMetric {
	service, err := c.service(ctx, account.AccessToken)
	if err != nil {
		return nil
	}
	search, err := service.Search.List([]string{"id"}).
		ForMine(true).
		Type("video").
		Order("date").
		MaxResults(10).
		Context(ctx).
		Do()
	if err != nil {
		return nil
	}
	var videoIDs []string
	for _, item := range search.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			videoIDs = append(videoIDs, item.Id.VideoId)
		}
	}
	if len(videoIDs) == 0 {
		return nil
	}
	details, err := service.Videos.List([]string{"statistics"}).Id(strings.Join(videoIDs, ",")).Context(ctx).Do()
	if err != nil {
		return nil
	}
	now := time.Now().UTC()
	out := make([]model.AnalyticsMetric, 0, len(details.Items))
	for _, video := range details.Items {
		if video.Statistics == nil {
			continue
		}
		out = append(out, model.AnalyticsMetric{
			ExternalPostID: video.Id,
			Metrics: map[string]int64{
				"views":    int64(video.Statistics.ViewCount),
				"likes":    int64(video.Statistics.LikeCount),
				"comments": int64(video.Statistics.CommentCount),
			},
			RecordedAt: now,
		})
	}
	return out
}
