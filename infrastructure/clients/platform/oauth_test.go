package platform_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"linkhub/infrastructure/clients/platform"
	"linkhub/infrastructure/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func tokenServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuth_AuthCodeURL(t *testing.T) {
	o := platform.NewOAuth(configuration.OAuthClient{ClientID: "cid", RedirectURI: "https://app/cb"},
		oauth2.Endpoint{AuthURL: "https://provider/auth", TokenURL: "https://provider/token"}, "read", "write")

	u, err := url.Parse(o.AuthCodeURL("st4te"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "st4te", q.Get("state"))
	assert.Equal(t, "read write", q.Get("scope"))
	assert.Equal(t, "https://app/cb", q.Get("redirect_uri"))
}

func TestOAuth_ExchangeAndRefresh(t *testing.T) {
	srv := tokenServer(t, `{"access_token":"at","refresh_token":"rt2","expires_in":3600,"token_type":"bearer","scope":"a,b"}`)
	o := platform.NewOAuth(configuration.OAuthClient{ClientID: "cid", ClientSecret: "sec"},
		oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams})

	grant, err := o.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "at", grant.AccessToken)
	assert.Equal(t, "rt2", grant.RefreshToken)
	assert.InDelta(t, 3600, grant.ExpiresInSeconds, 2)
	assert.Equal(t, []string{"a", "b"}, grant.Scopes)

	grant, err = o.Refresh(context.Background(), "rt1")
	require.NoError(t, err)
	assert.Equal(t, "rt2", grant.RefreshToken)
}

func TestOAuth_RefreshKeepsNoRotatedToken(t *testing.T) {
	srv := tokenServer(t, `{"access_token":"at","expires_in":60,"token_type":"bearer"}`)
	o := platform.NewOAuth(configuration.OAuthClient{ClientID: "cid", ClientSecret: "sec"},
		oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams})

	grant, err := o.Refresh(context.Background(), "rt1")
	require.NoError(t, err)
	assert.Equal(t, "at", grant.AccessToken)
	assert.Empty(t, grant.RefreshToken)
}

func TestOAuth_MissingInputs(t *testing.T) {
	o := platform.NewOAuth(configuration.OAuthClient{}, oauth2.Endpoint{})
	_, err := o.Exchange(context.Background(), "")
	assert.Error(t, err)
	_, err = o.Refresh(context.Background(), "")
	assert.Error(t, err)
}

func TestGrantFromToken_UsesExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	grant := platform.GrantFromToken(&oauth2.Token{AccessToken: "x", Expiry: now.Add(2 * time.Hour)}, now)
	assert.Equal(t, int64(7200), grant.ExpiresInSeconds)
}
