package social

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"linkhub/domain/model"
	"linkhub/domain/repository"
	"linkhub/infrastructure/configuration"
)

// Instagram publishes to a business account linked to a Facebook page using
// the two step container flow
type Instagram struct {
	graph
	// PollInterval spaces out container status checks for videos
	PollInterval time.Duration
	PollAttempts int
}

var _ repository.IPlatformAdapter = (*Instagram)(nil)

func NewInstagram(client configuration.OAuthClient) *Instagram {
	return &Instagram{
		graph: newGraph(client,
			"instagram_basic", "instagram_content_publish", "pages_show_list", "pages_read_engagement"),
		PollInterval: 3 * time.Second,
		PollAttempts: 5,
	}
}

func (i *Instagram) Platform() model.Platform { return model.PlatformInstagram }

func (i *Instagram) FetchProfile(ctx context.Context, accessToken string) (repository.Profile, error) {
	pages, err := i.pages(ctx, accessToken)
	if err != nil {
		return repository.Profile{}, err
	}
	for _, p := range pages {
		if p.Instagram == nil || p.Instagram.ID == "" {
			continue
		}
		return repository.Profile{
			ExternalAccountID: p.Instagram.ID,
			Handle:            p.Instagram.Username,
			DisplayName:       p.Instagram.Username,
			Meta:              map[string]string{"ig_user_id": p.Instagram.ID, "page_id": p.ID},
		}, nil
	}
	return repository.Profile{}, fmt.Errorf("no instagram business account linked to a facebook page")
}

func (i *Instagram) Publish(ctx context.Context, post model.Post, account model.SocialAccount) repository.PublishOutcome {
	igID := account.ExternalAccountID
	if igID == "" {
		return failedMsg("no instagram business account connected")
	}
	media, ok := firstMedia(post, model.MediaImage, model.MediaVideo)
	if !ok {
		return failedMsg("instagram requires an image or video")
	}

	form := url.Values{}
	form.Set("caption", withLinks(post))
	form.Set("access_token", account.AccessToken)
	if media.Kind == model.MediaVideo {
		form.Set("media_type", "REELS")
		form.Set("video_url", media.URL)
	} else {
		form.Set("image_url", media.URL)
	}

	var container struct {
		ID string `json:"id"`
	}
	if err := i.api(url.PathEscape(igID) + "/media").BodyForm(form).ToJSON(&container).Fetch(ctx); err != nil {
		return failed(err)
	}
	if container.ID == "" {
		return failedMsg("instagram returned no media container")
	}
	if media.Kind == model.MediaVideo {
		if err := i.waitReady(ctx, container.ID, account.AccessToken); err != nil {
			return failed(err)
		}
	}

	publish := url.Values{}
	publish.Set("creation_id", container.ID)
	publish.Set("access_token", account.AccessToken)
	var res struct {
		ID string `json:"id"`
	}
	if err := i.api(url.PathEscape(igID) + "/media_publish").BodyForm(publish).ToJSON(&res).Fetch(ctx); err != nil {
		return failed(err)
	}
	if res.ID == "" {
		return failedMsg("instagram returned no media id")
	}
	return succeeded(res.ID)
}

// waitReady polls a video container until Instagram finished ingesting it
func (i *Instagram) waitReady(ctx context.Context, containerID, accessToken string) error {
	for attempt := 0; attempt < i.PollAttempts; attempt++ {
		rb, err := withQuery(i.api(url.PathEscape(containerID)).Bearer(accessToken), fieldsOptions{Fields: "status_code"})
		if err != nil {
			return err
		}
		var res struct {
			StatusCode string `json:"status_code"`
		}
		if err := rb.ToJSON(&res).Fetch(ctx); err != nil {
			return err
		}
		switch res.StatusCode {
		case "FINISHED", "PUBLISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("instagram media container %s", res.StatusCode)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(i.PollInterval):
		}
	}
	return fmt.Errorf("instagram media container not ready")
}

func (i *Instagram) FetchAnalytics(ctx context.Context, account model.SocialAccount) []model.AnalyticsMetric {
	if account.ExternalAccountID == "" {
		return nil
	}
	rb, err := withQuery(i.api(url.PathEscape(account.ExternalAccountID)+"/media").Bearer(account.AccessToken), fieldsOptions{
		Fields: "id,like_count,comments_count",
		Limit:  analyticsPageSize,
	})
	if err != nil {
		return nil
	}
	var res struct {
		Data []struct {
			ID            string `json:"id"`
			LikeCount     int64  `json:"like_count"`
			CommentsCount int64  `json:"comments_count"`
		} `json:"data"`
	}
	if err := rb.ToJSON(&res).Fetch(ctx); err != nil {
		return nil
	}
	now := time.Now().UTC()
	out := make([]model.AnalyticsMetric, 0, len(res.Data))
	for _, m := range res.Data {
		out = append(out, model.AnalyticsMetric{
			ExternalPostID: m.ID,
			Metrics:        map[string]int64{"likes": m.LikeCount, "comments": m.CommentsCount},
			RecordedAt:     now,
		})
	}
	return out
}
