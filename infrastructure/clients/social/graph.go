package social

import (
	"context"
	"fmt"
	"net/url"

	"linkhub/domain/repository"
	"linkhub/infrastructure/clients/platform"
	"linkhub/infrastructure/configuration"

	"github.com/carlmjohnson/requests"
	"golang.org/x/oauth2"
)

const graphVersion = "v19.0"

var graphEndpoint = oauth2.Endpoint{
	AuthURL:   "https://www.facebook.com/" + graphVersion + "/dialog/oauth",
	TokenURL:  "https://graph.facebook.com/" + graphVersion + "/oauth/access_token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// graph is the Facebook Graph API plumbing shared by the Facebook and
// Instagram adapters. Facebook issues no refresh tokens; the long-lived user
// token is stored in its place and re-exchanged to extend it.
type graph struct {
	oauth        *platform.OAuth
	clientID     string
	clientSecret string
	BaseURL      string
}

func newGraph(client configuration.OAuthClient, scopes ...string) graph {
	return graph{
		oauth:        platform.NewOAuth(client, graphEndpoint, scopes...),
		clientID:     client.ClientID,
		clientSecret: client.ClientSecret,
		BaseURL:      "https://graph.facebook.com",
	}
}

func (g *graph) api(path string) *requests.Builder {
	return requests.URL(baseURL(g.BaseURL, "https://graph.facebook.com")).
		Path(fmt.Sprintf("/%s/%s", graphVersion, path))
}

func (g *graph) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

// Exchange trades the code for a short-lived token, then swaps that for a
// long-lived one
func (g *graph) Exchange(ctx context.Context, code, state string) (repository.TokenGrant, error) {
	short, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return repository.TokenGrant{}, err
	}
	long, err := g.extend(ctx, short.AccessToken)
	if err != nil {
		return repository.TokenGrant{}, err
	}
	long.Scopes = short.Scopes
	return long, nil
}

func (g *graph) RefreshToken(ctx context.Context, refreshToken string) (repository.TokenGrant, error) {
	if refreshToken == "" {
		return repository.TokenGrant{}, fmt.Errorf("no long-lived token to extend")
	}
	return g.extend(ctx, refreshToken)
}

type fbExchangeOptions struct {
	GrantType       string `url:"grant_type"`
	ClientID        string `url:"client_id"`
	ClientSecret    string `url:"client_secret"`
	FbExchangeToken string `url:"fb_exchange_token"`
}

func (g *graph) extend(ctx context.Context, token string) (repository.TokenGrant, error) {
	rb, err := withQuery(g.api("oauth/access_token"), fbExchangeOptions{
		GrantType:       "fb_exchange_token",
		ClientID:        g.clientID,
		ClientSecret:    g.clientSecret,
		FbExchangeToken: token,
	})
	if err != nil {
		return repository.TokenGrant{}, err
	}
	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := rb.ToJSON(&res).Fetch(ctx); err != nil {
		return repository.TokenGrant{}, fmt.Errorf("long-lived token exchange: %w", err)
	}
	if res.AccessToken == "" {
		return repository.TokenGrant{}, fmt.Errorf("long-lived token exchange returned no token")
	}
	return repository.TokenGrant{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.AccessToken,
		ExpiresInSeconds: res.ExpiresIn,
	}, nil
}

type graphPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
	Instagram   *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"instagram_business_account"`
}

type fieldsOptions struct {
	Fields string `url:"fields,omitempty"`
	Limit  int    `url:"limit,omitempty"`
}

// pages lists the pages the user manages, each with its own page token
func (g *graph) pages(ctx context.Context, accessToken string) ([]graphPage, error) {
	rb, err := withQuery(g.api("me/accounts").Bearer(accessToken),
		fieldsOptions{Fields: "id,name,access_token,instagram_business_account{id,username}"})
	if err != nil {
		return nil, err
	}
	var res struct {
		Data []graphPage `json:"data"`
	}
	if err := rb.ToJSON(&res).Fetch(ctx); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return res.Data, nil
}

// pageToken fetches a fresh page token with the stored user token
func (g *graph) pageToken(ctx context.Context, pageID, userToken string) (string, error) {
	rb, err := withQuery(g.api(url.PathEscape(pageID)).Bearer(userToken), fieldsOptions{Fields: "access_token"})
	if err != nil {
		return "", err
	}
	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := rb.ToJSON(&res).Fetch(ctx); err != nil {
		return "", fmt.Errorf("page token: %w", err)
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("page token: not granted for page %s", pageID)
	}
	return res.AccessToken, nil
}
