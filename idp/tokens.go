package idp

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	autherrors "github.com/timmelander/oidc-session-gateway/internal/errors"
	"github.com/timmelander/oidc-session-gateway/secrets"
)

// tokenTimeout bounds the authorization-code exchange. Token endpoints are
// slower than discovery endpoints.
const tokenTimeout = 30 * time.Second

// Tokens is the relevant part of the provider's token response.
type Tokens struct {
	IDToken     string
	AccessToken string
}

// Exchange posts the authorization code, the recovered PKCE verifier, and the
// client credentials to the provider's token endpoint. The id_token in the
// response arrives over this server-to-server TLS channel, which is why its
// signature is not separately verified.
func (c *Client) Exchange(
	ctx context.Context,
	doc *DiscoveryDocument,
	creds secrets.ClientCredentials,
	redirectURI, code, codeVerifier string,
) (Tokens, error) {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  doc.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: tokenTimeout})
	token, err := conf.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return Tokens{}, autherrors.Wrapf(autherrors.ErrUpstream, "[Client Exchange] token exchange failed (%v)", err)
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return Tokens{}, autherrors.ErrNoIDToken
	}

	return Tokens{IDToken: idToken, AccessToken: token.AccessToken}, nil
}
