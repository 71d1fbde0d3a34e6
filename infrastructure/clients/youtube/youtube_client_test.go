package youtube_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"linkhub/domain/model"
	"linkhub/infrastructure/clients/youtube"
	"linkhub/infrastructure/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/channels"):
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"items": []map[string]interface{}{{
					"id":      "UC123",
					"snippet": map[string]string{"title": "LinkHub Channel", "customUrl": "@linkhub"},
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/search"):
			assert.Equal(t, "true", r.URL.Query().Get("forMine"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"items": []map[string]interface{}{{"id": map[string]string{"kind": "youtube#video", "videoId": "v1"}}},
			})
		case strings.HasSuffix(r.URL.Path, "/videos"):
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"items": []map[string]interface{}{{
					"id":         "v1",
					"statistics": map[string]string{"viewCount": "120", "likeCount": "7", "commentCount": "2"},
				}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthCodeURLRequestsOfflineAccess(t *testing.T) {
	c := youtube.NewYouTubeClient(configuration.OAuthClient{ClientID: "cid", RedirectURI: "https://app/social/callback/youtube"})

	u, err := url.Parse(c.AuthCodeURL("st"))
	require.NoError(t, err)
	assert.Equal(t, "offline", u.Query().Get("access_type"))
	assert.Equal(t, "consent", u.Query().Get("prompt"))
	assert.Contains(t, u.Query().Get("scope"), "youtube.upload")
}

func TestFetchProfile(t *testing.T) {
	c := youtube.NewYouTubeClient(configuration.OAuthClient{})
	c.Endpoint = fakeAPI(t).URL + "/"

	p, err := c.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "UC123", p.ExternalAccountID)
	assert.Equal(t, "@linkhub", p.Handle)
	assert.Equal(t, "LinkHub Channel", p.DisplayName)
}

func TestFetchAnalytics(t *testing.T) {
	c := youtube.NewYouTubeClient(configuration.OAuthClient{})
	c.Endpoint = fakeAPI(t).URL + "/"

	metrics := c.FetchAnalytics(context.Background(), model.SocialAccount{AccessToken: "tok"})
	require.Len(t, metrics, 1)
	assert.Equal(t, "v1", metrics[0].ExternalPostID)
	assert.Equal(t, int64(120), metrics[0].Metrics["views"])
}

func TestPublishValidation(t *testing.T) {
	c := youtube.NewYouTubeClient(configuration.OAuthClient{})

	out := c.Publish(context.Background(), model.Post{Title: "t", Content: "x"}, model.SocialAccount{AccessToken: "tok"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "video")

	post := model.Post{Content: "x", Media: []model.Media{{URL: "https://cdn/v.mp4", Kind: model.MediaVideo}}}
	out = c.Publish(context.Background(), post, model.SocialAccount{AccessToken: "tok"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "title")
}

func TestPublishMediaUnavailable(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer media.Close()
	c := youtube.NewYouTubeClient(configuration.OAuthClient{})
	c.Endpoint = fakeAPI(t).URL + "/"

	post := model.Post{Title: "t", Content: "x", Media: []model.Media{{URL: media.URL + "/v.mp4", Kind: model.MediaVideo}}}
	out := c.Publish(context.Background(), post, model.SocialAccount{AccessToken: "tok"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "failed to upload video")
}
