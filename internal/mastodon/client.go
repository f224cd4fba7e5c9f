// Package mastodon provides a client for the Mastodon REST API.
package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAccessToken sets the bearer token used for authenticated calls.
func WithAccessToken(token string) ClientOption {
	return func(c *Client) {
		c.accessToken = token
	}
}

// Client is a Mastodon API client bound to one instance.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  HTTPClient
}

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the instance URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RegisterApp creates an OAuth application on the instance.
func (c *Client) RegisterApp(ctx context.Context, name string, scopes []string, redirectURI string) (*App, error) {
	form := url.Values{}
	form.Set("client_name", name)
	form.Set("redirect_uris", redirectURI)
	form.Set("scopes", strings.Join(scopes, " "))

	body, err := c.doRequest(ctx, http.MethodPost, "/api/v1/apps", form, nil)
	if err != nil {
		return nil, err
	}

	var app App
	if err := json.Unmarshal(body, &app); err != nil {
		return nil, fmt.Errorf("failed to parse app response: %w", err)
	}
	if app.ClientID == "" || app.ClientSecret == "" {
		return nil, fmt.Errorf("app response is missing client credentials")
	}
	return &app, nil
}

// PostStatus publishes a public status. A non-empty idempotencyKey makes the
// instance drop a repeat of the same request.
func (c *Client) PostStatus(ctx context.Context, text, idempotencyKey string) (*Status, error) {
	form := url.Values{}
	form.Set("status", text)

	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/api/v1/statuses", form, headers)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}
	return &status, nil
}

// VerifyCredentials returns the account the access token belongs to.
func (c *Client) VerifyCredentials(ctx context.Context) (*Account, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/v1/accounts/verify_credentials", nil, nil)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("failed to parse account response: %w", err)
	}
	return &account, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, form url.Values, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleAPIError(resp.StatusCode, body)
	}

	return body, nil
}

func (c *Client) handleAPIError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Detail = payload.Error
	}

	switch statusCode {
	case http.StatusUnauthorized:
		apiErr.Message = "Mastodon authentication failed - the access token was rejected"
	case http.StatusForbidden:
		apiErr.Message = "Mastodon access denied - check the app scopes and account status"
	case http.StatusUnprocessableEntity:
		apiErr.Message = "Mastodon rejected the status"
	case http.StatusTooManyRequests:
		apiErr.Message = "Mastodon rate limit exceeded - please try again later"
	case http.StatusServiceUnavailable:
		apiErr.Message = "Mastodon temporarily unavailable - please try again in a few minutes"
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		apiErr.Message = "Mastodon server error - please try again later"
	default:
		apiErr.Message = fmt.Sprintf("Mastodon API error (status %d)", statusCode)
	}
	return apiErr
}
