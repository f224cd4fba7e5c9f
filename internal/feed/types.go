// Package feed fetches and decodes the RSS/Atom feed whose entries get posted.
package feed

import (
	"context"
	"time"
)

// Entry is one article from the feed.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
}

// Source supplies the decoded entries of one feed, in feed order.
type Source interface {
	Fetch(ctx context.Context) ([]Entry, error)
}
