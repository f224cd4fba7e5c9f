package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const userAgent = "feedtoot (+https://github.com/gauthierbraillon/feedtoot)"

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

// WithLogger sets the logger used for dropped items.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLimit keeps only the first n entries (0 means all).
func WithLimit(n int) ClientOption {
	return func(c *Client) {
		c.limit = n
	}
}

// Client fetches one feed URL and decodes it with gofeed.
type Client struct {
	feedURL    string
	httpClient HTTPClient
	parser     *gofeed.Parser
	logger     *slog.Logger
	limit      int
}

// NewClient creates a feed client for feedURL.
func NewClient(feedURL string, opts ...ClientOption) *Client {
	c := &Client{
		feedURL:    feedURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		parser:     gofeed.NewParser(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads and parses the feed. Entries keep feed order.
func (c *Client) Fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", c.feedURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned HTTP %d for %s", resp.StatusCode, c.feedURL)
	}

	parsed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", c.feedURL, err)
	}

	return c.entries(parsed), nil
}

func (c *Client) entries(parsed *gofeed.Feed) []Entry {
	items := parsed.Items
	if c.limit > 0 && len(items) > c.limit {
		items = items[:c.limit]
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		if id == "" {
			c.logger.Warn("dropping feed item without guid or link", "title", item.Title)
			continue
		}

		entries = append(entries, Entry{
			ID:          id,
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: publishedAt(item),
		})
	}
	return entries
}

func publishedAt(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed
	default:
		return time.Time{}
	}
}
