package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gauthierbraillon/feedtoot/internal/feed"
)

// Report summarises one run over a feed.
type Report struct {
	Results    []Result
	StartedAt  time.Time
	FinishedAt time.Time
}

// Count returns how many entries ended in outcome.
func (r Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failures returns the results that need attention.
func (r Report) Failures() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Outcome.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Run processes entries sequentially in the given order. A failing entry
// never stops the ones after it.
func (e *Engine) Run(ctx context.Context, entries []feed.Entry) Report {
	report := Report{
		Results:   make([]Result, 0, len(entries)),
		StartedAt: time.Now(),
	}
	for _, entry := range entries {
		report.Results = append(report.Results, e.Process(ctx, entry))
	}
	report.FinishedAt = time.Now()

	e.logger.Info("run complete",
		"entries", len(entries),
		"published", report.Count(OutcomePublished),
		"failed", len(report.Failures()),
		"duration", report.FinishedAt.Sub(report.StartedAt).String())
	return report
}

// RunSource fetches the feed and runs every entry. Only a fetch failure is
// returned as an error.
func (e *Engine) RunSource(ctx context.Context, src feed.Source) (Report, error) {
	entries, err := src.Fetch(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to fetch feed: %w", err)
	}
	e.logger.Info("feed fetched", "entries", len(entries))
	return e.Run(ctx, entries), nil
}
