package drive

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	graphScope = "https://graph.microsoft.com/.default"

	// tokens are refreshed this long before they expire
	tokenExpiryBuffer = 5 * time.Minute

	httpTimeout = 30 * time.Second
)

// authorityURL is the Azure AD v2 token endpoint; %s is the tenant ID.
var authorityURL = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

// GraphAuth holds the credentials for Graph. AccessToken, when set, is used
// as-is and the client credentials are ignored.
type GraphAuth struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	AccessToken  string
}

type clientCredentialsSource struct {
	ctx context.Context
	cfg *clientcredentials.Config
}

func (s *clientCredentialsSource) Token() (*oauth2.Token, error) {
	return s.cfg.Token(s.ctx)
}

// NewTokenSource returns a cached token source for Graph.
func NewTokenSource(ctx context.Context, auth GraphAuth) (oauth2.TokenSource, error) {
	if auth.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: auth.AccessToken, TokenType: "Bearer"}), nil
	}

	if auth.TenantID == "" || auth.ClientID == "" || auth.ClientSecret == "" {
		return nil, fmt.Errorf("azure credentials not set: need tenant id, client id and client secret")
	}

	src := &clientCredentialsSource{
		ctx: ctx,
		cfg: &clientcredentials.Config{
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			TokenURL:     fmt.Sprintf(authorityURL, auth.TenantID),
			Scopes:       []string{graphScope},
		},
	}
	return oauth2.ReuseTokenSourceWithExpiry(nil, src, tokenExpiryBuffer), nil
}

// NewGraphHTTPClient returns an http.Client that authenticates every request
// with tokens from ts.
func NewGraphHTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	client := oauth2.NewClient(ctx, ts)
	client.Timeout = httpTimeout
	return client
}
