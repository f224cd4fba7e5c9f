// Package engine tests document the per-entry decision rules.
//
// Test requirements (this file serves as documentation):
// - Ids already in the ledger never reach the publisher
// - Entries not published on today's month/day never reach the publisher
// - A successful publish is followed by exactly one record of that id
// - Running twice on the same entry publishes once
// - A failed existence check never publishes (fail closed)
// - Publish failures leave the ledger unchanged and the run continues
// - Record failures and record conflicts are reported distinctly
package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gauthierbraillon/feedtoot/internal/eligibility"
	"github.com/gauthierbraillon/feedtoot/internal/feed"
	"github.com/gauthierbraillon/feedtoot/internal/ledger"
	"github.com/gauthierbraillon/feedtoot/internal/publisher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu    sync.Mutex
	texts []string
	fail  map[string]error
}

func (p *recordingPublisher) Publish(_ context.Context, title, link string) publisher.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, publisher.ComposeStatus(title, link))
	if err, ok := p.fail[link]; ok {
		return publisher.Failed(err)
	}
	return publisher.Succeeded()
}

func (p *recordingPublisher) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.texts)
}

// scriptedLedger wraps a Memory ledger and lets tests inject failures.
type scriptedLedger struct {
	*ledger.Memory
	existsErr error
	recordErr error
	records   []string
}

func (l *scriptedLedger) Exists(ctx context.Context, id string) (bool, error) {
	if l.existsErr != nil {
		return false, l.existsErr
	}
	return l.Memory.Exists(ctx, id)
}

func (l *scriptedLedger) Record(ctx context.Context, id string) error {
	l.records = append(l.records, id)
	if l.recordErr != nil {
		return l.recordErr
	}
	return l.Memory.Record(ctx, id)
}

type countingRecorder struct {
	outcomes map[string]int
	publish  int
}

func (r *countingRecorder) RecordOutcome(o string) {
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[o]++
}

func (r *countingRecorder) RecordPublish(time.Duration) { r.publish++ }

func newTestEngine(l ledger.Ledger, p publisher.Publisher, opts ...Option) *Engine {
	ev := eligibility.NewEvaluator(time.UTC, eligibility.WithClock(func() time.Time { return fixedNow }))
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))}, opts...)
	return New(l, ev, p, opts...)
}

func todayEntry(id string) feed.Entry {
	return feed.Entry{ID: id, Title: "T", Link: "http://x/" + id, PublishedAt: fixedNow.Add(-2 * time.Hour)}
}

func TestProcess_EligibleUnpostedEntryIsPublishedAndRecorded(t *testing.T) {
	l := ledger.NewMemory()
	p := &recordingPublisher{}
	entry := feed.Entry{ID: "a1", Title: "T", Link: "http://x", PublishedAt: fixedNow}

	res := newTestEngine(l, p).Process(context.Background(), entry)

	assert.Equal(t, OutcomePublished, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"T\n\nhttp://x"}, p.texts)
	posted, err := l.Exists(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, posted)
}

func TestProcess_AlreadyPostedNeverPublishes(t *testing.T) {
	l := &scriptedLedger{Memory: ledger.NewMemory("a1")}
	p := &recordingPublisher{}

	res := newTestEngine(l, p).Process(context.Background(), todayEntry("a1"))

	assert.Equal(t, OutcomeAlreadyPosted, res.Outcome)
	assert.Zero(t, p.calls())
	assert.Empty(t, l.records, "ledger must not be mutated")
}

func TestProcess_NotPublishedTodayIsSkipped(t *testing.T) {
	l := ledger.NewMemory()
	p := &recordingPublisher{}
	yesterday := todayEntry("a1")
	yesterday.PublishedAt = fixedNow.AddDate(0, 0, -1)

	res := newTestEngine(l, p).Process(context.Background(), yesterday)

	assert.Equal(t, OutcomeNotEligible, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Zero(t, p.calls())
	assert.Zero(t, l.Len())
}

func TestProcess_SameDayPreviousYearIsEligible(t *testing.T) {
	l := ledger.NewMemory()
	p := &recordingPublisher{}
	old := todayEntry("a1")
	old.PublishedAt = fixedNow.AddDate(-3, 0, 0)

	res := newTestEngine(l, p).Process(context.Background(), old)

	assert.Equal(t, OutcomePublished, res.Outcome)
}

func TestProcess_MissingPublishDateIsNotEligible(t *testing.T) {
	p := &recordingPublisher{}
	entry := todayEntry("a1")
	entry.PublishedAt = time.Time{}

	res := newTestEngine(ledger.NewMemory(), p).Process(context.Background(), entry)

	assert.Equal(t, OutcomeNotEligible, res.Outcome)
	assert.Zero(t, p.calls())
}

func TestProcess_StorageUnavailableFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"sentinel", ledger.ErrStorageUnavailable},
		{"foreign error", errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &scriptedLedger{Memory: ledger.NewMemory(), existsErr: tt.err}
			p := &recordingPublisher{}

			res := newTestEngine(l, p).Process(context.Background(), todayEntry("a1"))

			assert.Equal(t, OutcomeStorageUnavailable, res.Outcome)
			assert.ErrorIs(t, res.Err, ledger.ErrStorageUnavailable)
			assert.Zero(t, p.calls())
			assert.Empty(t, l.records)
		})
	}
}

func TestProcess_PublishFailureLeavesLedgerUnchanged(t *testing.T) {
	wantErr := errors.New("422 validation failed")
	l := &scriptedLedger{Memory: ledger.NewMemory()}
	p := &recordingPublisher{fail: map[string]error{"http://x/a1": wantErr}}

	res := newTestEngine(l, p).Process(context.Background(), todayEntry("a1"))

	assert.Equal(t, OutcomePublishFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrPublishFailed)
	assert.ErrorIs(t, res.Err, wantErr)
	assert.Empty(t, l.records)
}

func TestProcess_RecordFailureIsDistinctFromPublishFailure(t *testing.T) {
	l := &scriptedLedger{Memory: ledger.NewMemory(), recordErr: ledger.ErrWriteAmbiguous}
	p := &recordingPublisher{}

	res := newTestEngine(l, p).Process(context.Background(), todayEntry("a1"))

	assert.Equal(t, OutcomeRecordFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrRecordFailed)
	assert.ErrorIs(t, res.Err, ledger.ErrWriteAmbiguous)
	assert.NotErrorIs(t, res.Err, ErrPublishFailed)
	assert.Equal(t, 1, p.calls(), "the post is not undone")
	assert.True(t, res.Outcome.Posted())
}

func TestProcess_RecordConflict(t *testing.T) {
	// Another run recorded the id between our check and our record.
	l := &scriptedLedger{Memory: ledger.NewMemory(), recordErr: ledger.ErrAlreadyRecorded}
	p := &recordingPublisher{}

	res := newTestEngine(l, p).Process(context.Background(), todayEntry("a1"))

	assert.Equal(t, OutcomeRecordConflict, res.Outcome)
	assert.ErrorIs(t, res.Err, ledger.ErrAlreadyRecorded)
	assert.True(t, res.Outcome.Failed())
}

func TestProcess_SuccessfulPublishRecordsExactlyOnce(t *testing.T) {
	l := &scriptedLedger{Memory: ledger.NewMemory()}
	p := &recordingPublisher{}

	newTestEngine(l, p).Process(context.Background(), todayEntry("a1"))

	assert.Equal(t, []string{"a1"}, l.records)
}

func TestProcess_IsIdempotentAcrossRuns(t *testing.T) {
	l := ledger.NewMemory()
	p := &recordingPublisher{}
	e := newTestEngine(l, p)
	entry := todayEntry("a1")

	first := e.Process(context.Background(), entry)
	second := e.Process(context.Background(), entry)

	assert.Equal(t, OutcomePublished, first.Outcome)
	assert.Equal(t, OutcomeAlreadyPosted, second.Outcome)
	assert.Equal(t, 1, p.calls())
}

func TestProcess_RecordsMetrics(t *testing.T) {
	rec := &countingRecorder{}
	p := &recordingPublisher{}
	e := newTestEngine(ledger.NewMemory("old"), p, WithRecorder(rec))

	e.Process(context.Background(), todayEntry("old"))
	e.Process(context.Background(), todayEntry("new"))

	assert.Equal(t, 1, rec.outcomes["already_posted"])
	assert.Equal(t, 1, rec.outcomes["published"])
	assert.Equal(t, 1, rec.publish)
}

func TestProcess_LogsOutcome(t *testing.T) {
	var logs bytes.Buffer
	e := newTestEngine(ledger.NewMemory(), &recordingPublisher{},
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))

	e.Process(context.Background(), todayEntry("a1"))

	assert.Contains(t, logs.String(), `"outcome":"published"`)
	assert.Contains(t, logs.String(), `"id":"a1"`)
}

func TestRun_ContinuesPastFailures(t *testing.T) {
	l := ledger.NewMemory("posted")
	p := &recordingPublisher{fail: map[string]error{"http://x/broken": errors.New("boom")}}
	old := todayEntry("old")
	old.PublishedAt = fixedNow.AddDate(0, 0, -1)
	entries := []feed.Entry{todayEntry("broken"), todayEntry("posted"), old, todayEntry("good")}

	report := newTestEngine(l, p).Run(context.Background(), entries)

	require.Len(t, report.Results, 4)
	assert.Equal(t, OutcomePublishFailed, report.Results[0].Outcome)
	assert.Equal(t, OutcomeAlreadyPosted, report.Results[1].Outcome)
	assert.Equal(t, OutcomeNotEligible, report.Results[2].Outcome)
	assert.Equal(t, OutcomePublished, report.Results[3].Outcome)
	assert.Equal(t, 1, report.Count(OutcomePublished))
	assert.Len(t, report.Failures(), 1)
	assert.Equal(t, 2, l.Len())
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestRun_PreservesFeedOrder(t *testing.T) {
	p := &recordingPublisher{}
	entries := []feed.Entry{todayEntry("c"), todayEntry("a"), todayEntry("b")}

	newTestEngine(ledger.NewMemory(), p).Run(context.Background(), entries)

	assert.Equal(t, []string{"T\n\nhttp://x/c", "T\n\nhttp://x/a", "T\n\nhttp://x/b"}, p.texts)
}

type staticSource struct {
	entries []feed.Entry
	err     error
}

func (s staticSource) Fetch(context.Context) ([]feed.Entry, error) { return s.entries, s.err }

func TestRunSource(t *testing.T) {
	p := &recordingPublisher{}
	e := newTestEngine(ledger.NewMemory(), p)

	report, err := e.RunSource(context.Background(), staticSource{entries: []feed.Entry{todayEntry("a1")}})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(OutcomePublished))
}

func TestRunSource_FetchErrorAbortsBeforeProcessing(t *testing.T) {
	p := &recordingPublisher{}
	e := newTestEngine(ledger.NewMemory(), p)

	_, err := e.RunSource(context.Background(), staticSource{err: errors.New("feed returned HTTP 500")})

	assert.ErrorContains(t, err, "failed to fetch feed")
	assert.Zero(t, p.calls())
}

func TestOutcome_Classification(t *testing.T) {
	for _, o := range Outcomes {
		switch o {
		case OutcomeAlreadyPosted, OutcomeNotEligible, OutcomePublished:
			assert.False(t, o.Failed(), o)
		default:
			assert.True(t, o.Failed(), o)
		}
	}
	assert.False(t, OutcomePublishFailed.Posted())
}
