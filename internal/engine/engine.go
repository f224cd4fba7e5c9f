// Package engine decides, entry by entry, whether to post and records what
// was posted.
//
// Each entry moves through: check ledger, check eligibility, publish, record.
// Every path ends in exactly one Outcome. The check and the record are not
// atomic: two overlapping runs can both pass the check for the same id.
// Record is a conditional insert, so the loser of that race sees
// OutcomeRecordConflict rather than a silent duplicate; preventing the
// duplicate post itself requires a single concurrent run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gauthierbraillon/feedtoot/internal/eligibility"
	"github.com/gauthierbraillon/feedtoot/internal/feed"
	"github.com/gauthierbraillon/feedtoot/internal/ledger"
	"github.com/gauthierbraillon/feedtoot/internal/publisher"
)

var (
	// ErrPublishFailed marks an entry the publisher could not post.
	ErrPublishFailed = errors.New("publish failed")
	// ErrRecordFailed marks an entry that was posted but not recorded.
	ErrRecordFailed = errors.New("posted but not recorded")
)

// Outcome is the terminal state of one entry.
type Outcome string

const (
	OutcomeAlreadyPosted      Outcome = "already_posted"
	OutcomeStorageUnavailable Outcome = "storage_unavailable"
	OutcomeNotEligible        Outcome = "not_eligible"
	OutcomePublishFailed      Outcome = "publish_failed"
	OutcomePublished          Outcome = "published"
	OutcomeRecordFailed       Outcome = "record_failed"
	OutcomeRecordConflict     Outcome = "record_conflict"
)

// Outcomes lists every outcome in state-machine order.
var Outcomes = []Outcome{
	OutcomeAlreadyPosted,
	OutcomeStorageUnavailable,
	OutcomeNotEligible,
	OutcomePublishFailed,
	OutcomePublished,
	OutcomeRecordFailed,
	OutcomeRecordConflict,
}

// Posted reports whether the entry was sent to the platform during this run.
func (o Outcome) Posted() bool {
	return o == OutcomePublished || o == OutcomeRecordFailed || o == OutcomeRecordConflict
}

// Failed reports whether the outcome needs operator attention.
func (o Outcome) Failed() bool {
	switch o {
	case OutcomeStorageUnavailable, OutcomePublishFailed, OutcomeRecordFailed, OutcomeRecordConflict:
		return true
	}
	return false
}

// Result is the discriminated result for one entry.
type Result struct {
	Entry   feed.Entry
	Outcome Outcome
	Err     error
}

// Recorder receives metrics. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordOutcome(outcome string)
	RecordPublish(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(string)        {}
func (nopRecorder) RecordPublish(time.Duration) {}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// Engine is the per-entry decision engine.
type Engine struct {
	ledger    ledger.Ledger
	evaluator *eligibility.Evaluator
	publisher publisher.Publisher
	logger    *slog.Logger
	recorder  Recorder
}

// New creates an Engine.
func New(l ledger.Ledger, ev *eligibility.Evaluator, p publisher.Publisher, opts ...Option) *Engine {
	e := &Engine{
		ledger:    l,
		evaluator: ev,
		publisher: p,
		logger:    slog.Default(),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process runs one entry through the state machine.
func (e *Engine) Process(ctx context.Context, entry feed.Entry) Result {
	res := e.process(ctx, entry)
	e.recorder.RecordOutcome(string(res.Outcome))
	e.log(res)
	return res
}

func (e *Engine) process(ctx context.Context, entry feed.Entry) Result {
	e.logger.Debug("checking entry", "id", entry.ID, "title", entry.Title)

	posted, err := e.ledger.Exists(ctx, entry.ID)
	if err != nil {
		if !errors.Is(err, ledger.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %w", ledger.ErrStorageUnavailable, err)
		}
		return Result{Entry: entry, Outcome: OutcomeStorageUnavailable, Err: err}
	}
	if posted {
		return Result{Entry: entry, Outcome: OutcomeAlreadyPosted}
	}

	if !e.evaluator.EligibleNow(entry.PublishedAt) {
		return Result{Entry: entry, Outcome: OutcomeNotEligible}
	}

	start := time.Now()
	pub := e.publisher.Publish(ctx, entry.Title, entry.Link)
	e.recorder.RecordPublish(time.Since(start))
	if !pub.OK {
		reason := pub.Reason
		if reason == nil {
			reason = errors.New("publisher reported failure without a reason")
		}
		return Result{Entry: entry, Outcome: OutcomePublishFailed, Err: fmt.Errorf("%w: %w", ErrPublishFailed, reason)}
	}

	if err := e.ledger.Record(ctx, entry.ID); err != nil {
		if errors.Is(err, ledger.ErrAlreadyRecorded) {
			return Result{Entry: entry, Outcome: OutcomeRecordConflict, Err: fmt.Errorf("%w: %w", ErrRecordFailed, err)}
		}
		return Result{Entry: entry, Outcome: OutcomeRecordFailed, Err: fmt.Errorf("%w: %w", ErrRecordFailed, err)}
	}

	return Result{Entry: entry, Outcome: OutcomePublished}
}

func (e *Engine) log(res Result) {
	attrs := []any{"id", res.Entry.ID, "title", res.Entry.Title, "outcome", string(res.Outcome)}
	if res.Err != nil {
		attrs = append(attrs, "error", res.Err)
	}

	switch res.Outcome {
	case OutcomeAlreadyPosted:
		e.logger.Info("already posted", attrs...)
	case OutcomeNotEligible:
		e.logger.Info("not published today, skipping", attrs...)
	case OutcomePublished:
		e.logger.Info("posted and marked as posted", attrs...)
	case OutcomeStorageUnavailable:
		e.logger.Error("ledger unavailable, not posting", attrs...)
	case OutcomePublishFailed:
		e.logger.Error("error posting entry", attrs...)
	case OutcomeRecordFailed:
		e.logger.Error("posted but could not mark as posted; next run may post it again", attrs...)
	case OutcomeRecordConflict:
		e.logger.Warn("posted but another run already marked it; the post may be duplicated", attrs...)
	}
}
