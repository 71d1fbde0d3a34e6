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

// Facebook posts to the first page the user manages. The page token is looked
// up at publish time so it is never stored.
type Facebook struct {
	graph
}

var _ repository.IPlatformAdapter = (*Facebook)(nil)

func NewFacebook(client configuration.OAuthClient) *Facebook {
	return &Facebook{graph: newGraph(client,
		"pages_show_list", "pages_read_engagement", "pages_manage_posts", "public_profile")}
}

func (f *Facebook) Platform() model.Platform { return model.PlatformFacebook }

func (f *Facebook) FetchProfile(ctx context.Context, accessToken string) (repository.Profile, error) {
	var me struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	rb, err := withQuery(f.api("me").Bearer(accessToken), fieldsOptions{Fields: "id,name"})
	if err != nil {
		return repository.Profile{}, err
	}
	if err := rb.ToJSON(&me).Fetch(ctx); err != nil {
		return repository.Profile{}, fmt.Errorf("facebook profile: %w", err)
	}
	p := repository.Profile{ExternalAccountID: me.ID, Handle: me.Name, DisplayName: me.Name}
	pages, err := f.pages(ctx, accessToken)
	if err != nil {
		return repository.Profile{}, err
	}
	if len(pages) > 0 {
		p.Meta = map[string]string{"page_id": pages[0].ID, "page_name": pages[0].Name}
	}
	return p, nil
}

func (f *Facebook) Publish(ctx context.Context, post model.Post, account model.SocialAccount) repository.PublishOutcome {
	pageID := account.ProfileMeta["page_id"]
	if pageID == "" {
		return failedMsg("no facebook page connected")
	}
	pageToken, err := f.pageToken(ctx, pageID, account.AccessToken)
	if err != nil {
		return failed(err)
	}

	form := url.Values{}
	form.Set("access_token", pageToken)
	edge := "feed"
	if img, ok := firstMedia(post, model.MediaImage); ok {
		edge = "photos"
		form.Set("url", img.URL)
		form.Set("caption", withLinks(post))
	} else {
		form.Set("message", post.Content)
		if link, ok := firstMedia(post, model.MediaLink); ok {
			form.Set("link", link.URL)
		}
	}

	var res struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	err = f.api(fmt.Sprintf("%s/%s", url.PathEscape(pageID), edge)).
		BodyForm(form).
		ToJSON(&res).
		Fetch(ctx)
	if err != nil {
		return failed(err)
	}
	// photos answer with both; post_id is the feed story
	if res.PostID != "" {
		return succeeded(res.PostID)
	}
	if res.ID == "" {
		return failedMsg("facebook returned no post id")
	}
	return succeeded(res.ID)
}

func (f *Facebook) FetchAnalytics(ctx context.Context, account model.SocialAccount) []model.AnalyticsMetric {
	pageID := account.ProfileMeta["page_id"]
	if pageID == "" {
		return nil
	}
	pageToken, err := f.pageToken(ctx, pageID, account.AccessToken)
	if err != nil {
		return nil
	}
	rb, err := withQuery(f.api(url.PathEscape(pageID)+"/posts").Bearer(pageToken), fieldsOptions{
		Fields: "id,shares,reactions.summary(total_count),comments.summary(total_count)",
		Limit:  analyticsPageSize,
	})
	if err != nil {
		return nil
	}
	type summary struct {
		Summary struct {
			TotalCount int64 `json:"total_count"`
		} `json:"summary"`
	}
	var res struct {
		Data []struct {
			ID     string `json:"id"`
			Shares struct {
				Count int64 `json:"count"`
			} `json:"shares"`
			Reactions summary `json:"reactions"`
			Comments  summary `json:"comments"`
		} `json:"data"`
	}
	if err := rb.ToJSON(&res).Fetch(ctx); err != nil {
		return nil
	}
	now := time.Now().UTC()
	out := make([]model.AnalyticsMetric, 0, len(res.Data))
	for _, p := range res.Data {
		out = append(out, model.AnalyticsMetric{
			ExternalPostID: p.ID,
			Metrics: map[string]int64{
				"shares":    p.Shares.Count,
				"reactions": p.Reactions.Summary.TotalCount,
				"comments":  p.Comments.Summary.TotalCount,
			},
			RecordedAt: now,
		})
	}
	return out
}

