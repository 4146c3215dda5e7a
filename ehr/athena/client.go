// Package athena is a minimal Athena Health API client covering what
// the connectivity diagnostics need: the OAuth2 client-credentials
// grant and the practice providers listing.
package athena

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tochi12ob/clini/ehr"
	"github.com/tochi12ob/clini/logger"
)

// DefaultScope grants access to every Athenanet MDP service endpoint.
const DefaultScope = "athena/service/Athenanet.MDP.*"

// tokenPath is appended to the API base URL for the token grant.
const tokenPath = "/oauth2/v1/token"

// DefaultProviderLimit caps a providers listing when the caller does
// not choose one.
const DefaultProviderLimit = 100

var (
	ErrMissingCredentials = errors.New("athena: client id, client secret and api base url are required")
	ErrMissingPracticeID  = errors.New("athena: practice id is required")
	ErrAuthFailed         = errors.New("athena: authentication failed")
)

// Client calls the Athena Health API on behalf of one practice.
// Tokens are fetched lazily and reused until expiry.
type Client struct {
	baseURL    string
	practiceID string
	tokens     oauth2.TokenSource
	httpClient *http.Client
	log        logger.Logger
}

// NewClient builds a client from a credential bundle. Athena expects
// the client credentials in the form body, not a Basic header.
func NewClient(ctx context.Context, creds *ehr.AthenaCredentials, timeout time.Duration, log logger.Logger) (*Client, error) {
	if creds == nil || creds.ClientID == "" || creds.ClientSecret == "" || creds.APIBaseURL == "" {
		return nil, ErrMissingCredentials
	}
	if log == nil {
		log = logger.NewNoop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(creds.APIBaseURL, "/")
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})

	grant := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     baseURL + tokenPath,
		Scopes:       []string{DefaultScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokens := grant.TokenSource(ctx)

	httpClient := oauth2.NewClient(ctx, tokens)
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    baseURL,
		practiceID: creds.PracticeID,
		tokens:     tokens,
		httpClient: httpClient,
		log:        log,
	}, nil
}

// Token returns a valid access token, requesting one if the cached
// token is missing or expired.
func (c *Client) Token() (*oauth2.Token, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("athena: obtain access token: %w", err)
	}
	return token, nil
}

// ProvidersPage is one page of the practice providers listing.
// Provider entries stay raw maps; the diagnostics only count them.
type ProvidersPage struct {
	Providers  []map[string]interface{} `json:"providers"`
	TotalCount int                      `json:"totalcount"`
}

// ListProviders fetches providers for the practice, optionally
// filtered by department.
func (c *Client) ListProviders(ctx context.Context, departmentID string, limit int) (*ProvidersPage, error) {
	if c.practiceID == "" {
		return nil, ErrMissingPracticeID
	}
	if limit <= 0 {
		limit = DefaultProviderLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if departmentID != "" {
		query.Set("departmentid", departmentID)
	}
	endpoint := fmt.Sprintf("%s/v1/%s/providers?%s", c.baseURL, c.practiceID, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("athena: build providers request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("athena: providers request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("athena: read providers response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: HTTP 401: %s", ErrAuthFailed, body)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("athena: providers request failed: HTTP %d: %s", resp.StatusCode, body)
	}

	var page ProvidersPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("athena: decode providers response: %w", err)
	}

	c.log.Debug("fetched athena providers",
		logger.String("practice_id", c.practiceID),
		logger.Int("count", len(page.Providers)))

	return &page, nil
}

// CheckResult summarizes a connectivity check.
type CheckResult struct {
	TokenPrefix   string
	ProviderCount int
}

// Verify performs the connectivity check: obtain a token, then list
// providers. On a provider failure the result still carries the token
// prefix so callers can report how far the check got.
func (c *Client) Verify(ctx context.Context) (*CheckResult, error) {
	token, err := c.Token()
	if err != nil {
		return nil, err
	}
	result := &CheckResult{TokenPrefix: ehr.TruncateToken(token.AccessToken)}
	c.log.Info("obtained athena access token", logger.String("token", result.TokenPrefix))

	page, err := c.ListProviders(ctx, "", 0)
	if err != nil {
		return result, err
	}
	result.ProviderCount = len(page.Providers)
	return result, nil
}
