package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linkhub/domain/repository"
	"linkhub/infrastructure/configuration"

	"golang.org/x/oauth2"
)

// OAuth is the authorization code plumbing shared by the adapters
type OAuth struct {
	Config *oauth2.Config
}

// NewOAuth builds an oauth2 config from the client settings, falling back to
// defaultScopes when none are configured.
func NewOAuth(client configuration.OAuthClient, endpoint oauth2.Endpoint, defaultScopes ...string) *OAuth {
	scopes := client.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	return &OAuth{Config: &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		RedirectURL:  client.RedirectURI,
		Scopes:       scopes,
		Endpoint:     endpoint,
	}}
}

func (o *OAuth) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return o.Config.AuthCodeURL(state, opts...)
}

func (o *OAuth) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (repository.TokenGrant, error) {
	if code == "" {
		return repository.TokenGrant{}, fmt.Errorf("missing authorization code")
	}
	tok, err := o.Config.Exchange(ctx, code, opts...)
	if err != nil {
		return repository.TokenGrant{}, fmt.Errorf("code exchange: %w", err)
	}
	return GrantFromToken(tok, time.Now()), nil
}

// Refresh redeems refreshToken through the token source, which always hits the
// token endpoint because the seed token carries no access token.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (repository.TokenGrant, error) {
	if refreshToken == "" {
		return repository.TokenGrant{}, fmt.Errorf("no refresh token")
	}
	tok, err := o.Config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return repository.TokenGrant{}, err
	}
	grant := GrantFromToken(tok, time.Now())
	// oauth2 copies the old refresh token forward when none is returned
	if grant.RefreshToken == refreshToken {
		grant.RefreshToken = ""
	}
	return grant, nil
}

// GrantFromToken converts an oauth2 token. Scopes come from the "scope" extra,
// which providers separate with spaces or commas.
func GrantFromToken(tok *oauth2.Token, now time.Time) repository.TokenGrant {
	grant := repository.TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if tok.ExpiresIn > 0 {
		grant.ExpiresInSeconds = tok.ExpiresIn
	} else if !tok.Expiry.IsZero() {
		grant.ExpiresInSeconds = int64(tok.Expiry.Sub(now).Seconds())
	}
	if raw, ok := tok.Extra("scope").(string); ok && raw != "" {
		grant.Scopes = SplitScopes(raw)
	}
	return grant
}

func SplitScopes(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' })
}
