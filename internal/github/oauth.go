package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	ghoauth "golang.org/x/oauth2/github"
)

// ErrOAuthDisabled is returned when no OAuth app is configured.
var ErrOAuthDisabled = errors.New("github: oauth is not configured")

// OAuth drives the web sign-in flow of the GitHub OAuth app.
type OAuth struct {
	cfg *oauth2.Config
}

// NewOAuth returns the OAuth flow for clientID/secret, or nil when either is
// empty. authURL overrides the GitHub endpoint root (tests, GHES).
func NewOAuth(clientID, clientSecret, redirectURL, authURL string) *OAuth {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	endpoint := ghoauth.Endpoint
	if authURL != "" {
		root := strings.TrimSuffix(authURL, "/")
		endpoint = oauth2.Endpoint{
			AuthURL:  root + "/login/oauth/authorize",
			TokenURL: root + "/login/oauth/access_token",
		}
	}
	return &OAuth{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoint,
		Scopes:       []string{"repo", "read:org", "read:project", "project"},
	}}
}

// AuthCodeURL is the authorize URL carrying state.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.cfg.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (o *OAuth) Exchange(ctx context.Context, code string) (string, error) {
	if o == nil {
		return "", ErrOAuthDisabled
	}
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging oauth code: %w", err)
	}
	return tok.AccessToken, nil
}
