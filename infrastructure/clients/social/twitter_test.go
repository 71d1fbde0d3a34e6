package social_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"linkhub/domain/model"
	"linkhub/infrastructure/clients/social"
	"linkhub/infrastructure/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func account(token, externalID string) model.SocialAccount {
	return model.SocialAccount{AccessToken: token, ExternalAccountID: externalID, IsActive: true}
}

func TestTwitter_AuthCodeURLUsesPKCE(t *testing.T) {
	tw := social.NewTwitter(configuration.OAuthClient{ClientID: "cid", ClientSecret: "sec", RedirectURI: "https://app/cb"})

	u, err := url.Parse(tw.AuthCodeURL("abc"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "abc", q.Get("state"))

	// the challenge is stable for a state so the callback can recompute it
	again, _ := url.Parse(tw.AuthCodeURL("abc"))
	assert.Equal(t, q.Get("code_challenge"), again.Query().Get("code_challenge"))
}

func TestTwitter_Publish(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /2/tweets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello https://x.io", body["text"])
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": map[string]string{"id": "1789"}})
	})
	tw := social.NewTwitter(configuration.OAuthClient{})
	tw.BaseURL = newServer(t, mux).URL

	post := model.Post{Content: "hello", Media: []model.Media{{URL: "https://x.io", Kind: model.MediaLink}}}
	out := tw.Publish(context.Background(), post, account("tok", "u1"))
	require.True(t, out.Success, out.Error)
	assert.Equal(t, "1789", out.ExternalID)
}

func TestTwitter_PublishRejectsLongContent(t *testing.T) {
	tw := social.NewTwitter(configuration.OAuthClient{})
	tw.BaseURL = "http://127.0.0.1:1"

	out := tw.Publish(context.Background(), model.Post{Content: strings.Repeat("a", 281)}, account("tok", "u1"))
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "280")
}

func TestTwitter_PublishUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /2/tweets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"title": "Unauthorized"})
	})
	tw := social.NewTwitter(configuration.OAuthClient{})
	tw.BaseURL = newServer(t, mux).URL

	out := tw.Publish(context.Background(), model.Post{Content: "hi"}, account("stale", "u1"))
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "access token rejected")
}

func TestTwitter_ProfileAndAnalytics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /2/users/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]string{"id": "u1", "username": "linkhub", "name": "Link Hub"}})
	})
	mux.HandleFunc("GET /2/users/u1/tweets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "public_metrics", r.URL.Query().Get("tweet.fields"))
		assert.Equal(t, "10", r.URL.Query().Get("max_results"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": []map[string]interface{}{
			{"id": "t1", "public_metrics": map[string]int64{"like_count": 3, "retweet_count": 1}},
		}})
	})
	tw := social.NewTwitter(configuration.OAuthClient{})
	tw.BaseURL = newServer(t, mux).URL

	p, err := tw.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ExternalAccountID)
	assert.Equal(t, "linkhub", p.Handle)

	metrics := tw.FetchAnalytics(context.Background(), account("tok", "u1"))
	require.Len(t, metrics, 1)
	assert.Equal(t, int64(3), metrics[0].Metrics["like_count"])
}

func TestTwitter_AnalyticsFailureIsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /2/users/u1/tweets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	tw := social.NewTwitter(configuration.OAuthClient{})
	tw.BaseURL = newServer(t, mux).URL

	assert.Empty(t, tw.FetchAnalytics(context.Background(), account("tok", "u1")))
}
