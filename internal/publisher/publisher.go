// Package publisher posts feed entries to the social account.
//
// A Publisher never returns an error or panics past its boundary: every
// failure comes back as a Result with OK false and a Reason, and is logged
// with the entry it belongs to, so one bad entry cannot stop a run.
package publisher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Result is the outcome of one publish attempt.
type Result struct {
	OK     bool
	Reason error
}

// Succeeded is the successful Result.
func Succeeded() Result { return Result{OK: true} }

// Failed wraps reason in a failed Result.
func Failed(reason error) Result { return Result{Reason: reason} }

// Publisher posts one entry.
type Publisher interface {
	Publish(ctx context.Context, title, link string) Result
}

// ComposeStatus builds the status text for an entry.
func ComposeStatus(title, link string) string {
	return title + "\n\n" + link
}

// IdempotencyKey derives a stable key for the entry's link.
func IdempotencyKey(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:16])
}

// Poster is the single platform operation a Mastodon publisher needs.
type Poster interface {
	PostStatus(ctx context.Context, text, idempotencyKey string) error
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(ctx context.Context, text, idempotencyKey string) error

func (f PosterFunc) PostStatus(ctx context.Context, text, idempotencyKey string) error {
	return f(ctx, text, idempotencyKey)
}

// Mastodon publishes entries as public statuses.
type Mastodon struct {
	poster Poster
	logger *slog.Logger
}

// NewMastodon creates a Mastodon publisher.
func NewMastodon(poster Poster, logger *slog.Logger) *Mastodon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mastodon{poster: poster, logger: logger}
}

func (m *Mastodon) Publish(ctx context.Context, title, link string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Failed(fmt.Errorf("publisher panic: %v", r))
			m.logger.Error("error posting to mastodon", "title", title, "link", link, "error", res.Reason)
		}
	}()

	if err := m.poster.PostStatus(ctx, ComposeStatus(title, link), IdempotencyKey(link)); err != nil {
		m.logger.Error("error posting to mastodon", "title", title, "link", link, "error", err)
		return Failed(err)
	}
	return Succeeded()
}

// DryRun logs the status it would post and reports success.
type DryRun struct {
	logger *slog.Logger
}

// NewDryRun creates a DryRun publisher.
func NewDryRun(logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{logger: logger}
}

func (d *DryRun) Publish(_ context.Context, title, link string) Result {
	d.logger.Info("dry run: would post status", "status", ComposeStatus(title, link))
	return Succeeded()
}
