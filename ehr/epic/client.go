// Package epic implements the Epic FHIR OAuth2 authorization-code flow.
// Epic issues user-context tokens interactively, so the flow is split:
// AuthURL hands out the browser URL, ExchangeCode trades the callback
// code for a token and persists it, and AccessToken serves later
// invocations from the stored token only.
package epic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/tochi12ob/clini/ehr"
	"github.com/tochi12ob/clini/logger"
)

const (
	// DefaultRedirectURI matches the local callback most sandbox app
	// registrations use.
	DefaultRedirectURI = "http://localhost:8000/callback"

	// DefaultTokenFile is where the exchanged token is cached.
	DefaultTokenFile = ".epic_token.json"

	// DefaultTimeout bounds the code exchange request.
	DefaultTimeout = 30 * time.Second

	authPath  = "/oauth2/authorize"
	tokenPath = "/oauth2/token"
	fhirPath  = "/api/FHIR/R4"
)

// DefaultScopes are the user-context scopes the assistant needs.
func DefaultScopes() []string {
	return []string{
		"user/Appointment.read",
		"user/DocumentReference.read",
		"openid",
		"fhirUser",
		"offline_access",
	}
}

// Client drives the Epic OAuth2 flow against one FHIR deployment.
type Client struct {
	baseURL string
	oauth   *oauth2.Config
	store   *TokenStore
	timeout time.Duration
	log     logger.Logger
}

// NewClient validates creds and builds a client. An empty tokenFile
// falls back to DefaultTokenFile in the working directory.
func NewClient(creds *ehr.EpicCredentials, tokenFile string, timeout time.Duration, log logger.Logger) (*Client, error) {
	if creds == nil || creds.ClientID == "" || creds.ClientSecret == "" || creds.FHIRBaseURL == "" {
		return nil, ErrMissingCredentials
	}
	if log == nil {
		log = logger.NewNoop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tokenFile == "" {
		tokenFile = DefaultTokenFile
	}

	baseURL := strings.TrimRight(creds.FHIRBaseURL, "/")
	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	return &Client{
		baseURL: baseURL,
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  redirectURI,
			Scopes:       DefaultScopes(),
			Endpoint: oauth2.Endpoint{
				AuthURL:  baseURL + authPath,
				TokenURL: baseURL + tokenPath,
				// Epic wants client credentials as HTTP basic auth on
				// the token endpoint, not in the form body.
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		store:   NewTokenStore(tokenFile),
		timeout: timeout,
		log:     log,
	}, nil
}

// ResourceBase is the FHIR R4 root, used as the aud parameter.
func (c *Client) ResourceBase() string {
	return c.baseURL + fhirPath
}

// TokenPath returns where the exchanged token is cached.
func (c *Client) TokenPath() string {
	return c.store.Path()
}

// AuthURL builds the browser URL that starts the authorization flow.
// Epic rejects requests without an aud parameter naming the FHIR root.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("aud", c.ResourceBase()))
}

// ExchangeCode trades the callback code for a token and stores it.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: c.timeout})

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("epic: exchange authorization code: %w", err)
	}
	if err := c.store.Save(token); err != nil {
		return nil, err
	}

	c.log.Info("epic token stored",
		logger.String("path", c.store.Path()),
		logger.String("token", ehr.TruncateToken(token.AccessToken)))
	return token, nil
}

// AccessToken returns the stored token. It never talks to Epic: an
// absent or expired token means the operator has to redo the flow.
func (c *Client) AccessToken() (string, error) {
	token, err := c.store.Load()
	if err != nil {
		if errors.Is(err, ErrTokenFileNotFound) {
			return "", ErrNoToken
		}
		return "", err
	}
	if token.AccessToken == "" {
		return "", ErrNoToken
	}
	if !token.Valid() {
		return "", ErrTokenExpired
	}
	return token.AccessToken, nil
}

// CheckResult is what the connectivity check learned.
type CheckResult struct {
	TokenPrefix string
	TokenPath   string
}

// Verify reports whether a usable token is on disk. On ErrNoToken the
// caller should surface AuthURL so the operator can complete the flow.
func (c *Client) Verify() (*CheckResult, error) {
	token, err := c.AccessToken()
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		TokenPrefix: ehr.TruncateToken(token),
		TokenPath:   c.store.Path(),
	}
	c.log.Info("epic token loaded", logger.String("token", result.TokenPrefix))
	return result, nil
}
