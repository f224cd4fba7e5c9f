// Package oauth provides OAuth 2.0 utilities for feedtoot.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// OutOfBandRedirectURI makes the instance display the authorization code
// instead of redirecting.
const OutOfBandRedirectURI = "urn:ietf:wg:oauth:2.0:oob"

var ErrCredentialsNotFound = errors.New("credentials not found")

type Config struct {
	ClientID     string
	ClientSecret string // #nosec G117 - OAuth app secret, not an exposed credential
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

func (c Config) Validate() error {
	switch {
	case c.ClientID == "":
		return errors.New("oauth: client ID is required")
	case c.ClientSecret == "":
		return errors.New("oauth: client secret is required")
	case c.RedirectURL == "":
		return errors.New("oauth: redirect URL is required")
	case len(c.Scopes) == 0:
		return errors.New("oauth: at least one scope is required")
	}
	return nil
}

// MastodonOAuthConfig builds the endpoints for a Mastodon instance.
// authBaseURL serves /oauth/authorize and tokenBaseURL serves /oauth/token;
// they are the same host on a standard deployment.
func MastodonOAuthConfig(authBaseURL, tokenBaseURL, clientID, clientSecret string, scopes []string) Config {
	return Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthURL:      strings.TrimRight(authBaseURL, "/") + "/oauth/authorize",
		TokenURL:     strings.TrimRight(tokenBaseURL, "/") + "/oauth/token",
		RedirectURL:  OutOfBandRedirectURI,
		Scopes:       scopes,
	}
}

type Token struct {
	AccessToken string `json:"access_token"` // #nosec G117 - JSON field for OAuth token, not an exposed secret
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	CreatedAt   int64  `json:"created_at"`
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Flow struct {
	config     Config
	httpClient HTTPClient
}

type FlowOption func(*Flow)

func WithHTTPClient(client HTTPClient) FlowOption {
	return func(f *Flow) { f.httpClient = client }
}

func NewFlow(config Config, opts ...FlowOption) *Flow {
	f := &Flow{config: config, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AuthCodeURL returns the authorization URL. An empty state is omitted.
func (f *Flow) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", f.config.ClientID)
	q.Set("redirect_uri", f.config.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(f.config.Scopes, " "))
	if state != "" {
		q.Set("state", state)
	}

	return f.config.AuthURL + "?" + q.Encode()
}

// ExchangeCode trades an authorization code for a token.
func (f *Flow) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", f.config.RedirectURL)
	return f.requestToken(ctx, data)
}

// PasswordGrant logs in with the account's email and password.
func (f *Flow) PasswordGrant(ctx context.Context, username, password string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "password")
	data.Set("username", username)
	data.Set("password", password)
	return f.requestToken(ctx, data)
}

func (f *Flow) requestToken(ctx context.Context, data url.Values) (*Token, error) {
	data.Set("client_id", f.config.ClientID)
	data.Set("client_secret", f.config.ClientSecret)
	data.Set("scope", strings.Join(f.config.Scopes, " "))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var oauthErr struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if json.Unmarshal(body, &oauthErr) == nil && oauthErr.Error != "" {
			return nil, fmt.Errorf("token request failed: status %d: %s: %s", resp.StatusCode, oauthErr.Error, oauthErr.Description)
		}
		return nil, fmt.Errorf("token request failed: status %d", resp.StatusCode)
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}

	return &token, nil
}

// Credentials are the app registration and access token for one instance.
type Credentials struct {
	InstanceURL  string `json:"instance_url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"` // #nosec G117 - JSON field for OAuth app, not an exposed secret
	AccessToken  string `json:"access_token"`  // #nosec G117 - JSON field for OAuth token, not an exposed secret
}

// HasApp reports whether an app registration is present.
func (c *Credentials) HasApp() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// CredentialStore caches Credentials as one JSON file per instance host.
type CredentialStore struct {
	dir string
}

func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{dir: dir}
}

func (s *CredentialStore) path(instanceURL string) string {
	name := instanceURL
	if u, err := url.Parse(instanceURL); err == nil && u.Host != "" {
		name = u.Host
	}
	return filepath.Join(s.dir, filepath.Base(name)+"_credentials.json")
}

func (s *CredentialStore) Save(creds *Credentials) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	return os.WriteFile(s.path(creds.InstanceURL), data, 0600)
}

func (s *CredentialStore) Load(instanceURL string) (*Credentials, error) {
	data, err := os.ReadFile(s.path(instanceURL)) // #nosec G304 -- file name is sanitized
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	return &creds, nil
}
