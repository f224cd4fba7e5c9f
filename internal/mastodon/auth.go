package mastodon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gauthierbraillon/feedtoot/pkg/oauth"
)

var (
	// AppScopes are requested when registering the application.
	AppScopes = []string{"read", "write", "follow"}
	// LoginScopes are requested for the access token.
	LoginScopes = []string{"read", "write"}
)

// AuthConfig locates the instance and the cached credentials.
type AuthConfig struct {
	InstanceURL  string // app registration and API calls
	TokenBaseURL string // serves /oauth/token
	AppName      string
}

// Authenticator produces an authenticated Client, registering the app and
// logging in only when the credential cache cannot be reused.
type Authenticator struct {
	cfg        AuthConfig
	store      *oauth.CredentialStore
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewAuthenticator creates an Authenticator. A nil httpClient means the
// default client.
func NewAuthenticator(cfg AuthConfig, store *oauth.CredentialStore, httpClient HTTPClient, logger *slog.Logger) *Authenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TokenBaseURL == "" {
		cfg.TokenBaseURL = cfg.InstanceURL
	}
	return &Authenticator{cfg: cfg, store: store, httpClient: httpClient, logger: logger}
}

// Login returns a client authenticated as username.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Client, error) {
	creds, err := a.ensureApp(ctx)
	if err != nil {
		return nil, err
	}

	if creds.AccessToken != "" {
		client := a.client(creds.AccessToken)
		account, err := client.VerifyCredentials(ctx)
		if err == nil {
			a.logger.Info("reusing cached mastodon token", "account", account.Acct)
			return client, nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			return nil, fmt.Errorf("failed to verify cached token: %w", err)
		}
		a.logger.Warn("cached mastodon token rejected, logging in again")
	}

	flow := oauth.NewFlow(a.oauthConfig(creds), oauth.WithHTTPClient(a.httpClient))
	token, err := flow.PasswordGrant(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("mastodon login failed: %w", err)
	}

	creds.AccessToken = token.AccessToken
	a.save(creds)
	return a.client(token.AccessToken), nil
}

// Authorize runs the interactive authorization-code flow. prompt receives
// the URL the user must visit and returns the code the instance displayed.
func (a *Authenticator) Authorize(ctx context.Context, prompt func(authURL string) (string, error)) (*Account, error) {
	creds, err := a.ensureApp(ctx)
	if err != nil {
		return nil, err
	}

	flow := oauth.NewFlow(a.oauthConfig(creds), oauth.WithHTTPClient(a.httpClient))
	// The out-of-band redirect displays the code instead of calling back,
	// so there is nowhere a state could be checked.
	authURL := flow.AuthCodeURL("")

	code, err := prompt(authURL)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, errors.New("no authorization code entered")
	}

	token, err := flow.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	account, err := a.client(token.AccessToken).VerifyCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("new token could not be verified: %w", err)
	}

	creds.AccessToken = token.AccessToken
	a.save(creds)
	return account, nil
}

func (a *Authenticator) ensureApp(ctx context.Context) (*oauth.Credentials, error) {
	creds, err := a.store.Load(a.cfg.InstanceURL)
	switch {
	case errors.Is(err, oauth.ErrCredentialsNotFound):
		creds = &oauth.Credentials{InstanceURL: a.cfg.InstanceURL}
	case err != nil:
		return nil, err
	}

	if creds.HasApp() {
		return creds, nil
	}

	a.logger.Info("registering mastodon app", "instance", a.cfg.InstanceURL, "name", a.cfg.AppName)
	app, err := NewClient(a.cfg.InstanceURL, WithHTTPClient(a.httpClient)).
		RegisterApp(ctx, a.cfg.AppName, AppScopes, oauth.OutOfBandRedirectURI)
	if err != nil {
		return nil, fmt.Errorf("failed to register app: %w", err)
	}

	creds.ClientID = app.ClientID
	creds.ClientSecret = app.ClientSecret
	creds.AccessToken = ""
	a.save(creds)
	return creds, nil
}

func (a *Authenticator) oauthConfig(creds *oauth.Credentials) oauth.Config {
	return oauth.MastodonOAuthConfig(a.cfg.InstanceURL, a.cfg.TokenBaseURL, creds.ClientID, creds.ClientSecret, LoginScopes)
}

func (a *Authenticator) client(token string) *Client {
	return NewClient(a.cfg.InstanceURL, WithHTTPClient(a.httpClient), WithAccessToken(token))
}

// save is best effort: a run that cannot write its cache still posts.
func (a *Authenticator) save(creds *oauth.Credentials) {
	if err := a.store.Save(creds); err != nil {
		a.logger.Warn("failed to cache mastodon credentials", "error", err)
	}
}
