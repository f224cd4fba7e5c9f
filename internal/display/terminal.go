// Package display provides terminal output formatting for feedtoot.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/gauthierbraillon/feedtoot/internal/engine"
)

const (
	separator   = " • "
	maxTitleLen = 72
)

// ReportFormatter formats run reports for terminal display.
type ReportFormatter struct {
	now func() time.Time
}

// NewReportFormatter creates a new report formatter.
func NewReportFormatter() *ReportFormatter {
	return &ReportFormatter{now: time.Now}
}

// FormatResult formats a single entry's outcome for display.
func (f *ReportFormatter) FormatResult(res engine.Result) string {
	var lines []string

	// Header: [OUTCOME] Title
	header := fmt.Sprintf("[%s] %s", strings.ToUpper(string(res.Outcome)), f.TruncateText(res.Entry.Title, maxTitleLen))
	lines = append(lines, header)

	// Id and publish time
	meta := "  id " + res.Entry.ID
	if !res.Entry.PublishedAt.IsZero() {
		meta += separator + "published " + f.FormatTimestamp(res.Entry.PublishedAt)
	}
	lines = append(lines, meta)

	if res.Entry.Link != "" {
		lines = append(lines, "  "+res.Entry.Link)
	}

	if res.Err != nil {
		lines = append(lines, "  reason: "+res.Err.Error())
	}

	return strings.Join(lines, "\n") + "\n"
}

// FormatReport formats every result followed by a summary line.
func (f *ReportFormatter) FormatReport(report engine.Report) string {
	if len(report.Results) == 0 {
		return "No entries in feed.\n"
	}

	var formatted []string
	for _, res := range report.Results {
		formatted = append(formatted, f.FormatResult(res))
	}

	return strings.Join(formatted, "\n") + "\n" + f.FormatSummary(report)
}

// FormatSummary counts results per outcome, skipping outcomes with none.
func (f *ReportFormatter) FormatSummary(report engine.Report) string {
	parts := []string{fmt.Sprintf("%d %s", len(report.Results), plural(len(report.Results), "entry", "entries"))}
	for _, o := range engine.Outcomes {
		if n := report.Count(o); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ReplaceAll(string(o), "_", " ")))
		}
	}
	return strings.Join(parts, separator) + "\n"
}

// FormatTimestamp formats a timestamp as relative time.
func (f *ReportFormatter) FormatTimestamp(t time.Time) string {
	diff := f.now().Sub(t)

	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006")
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *ReportFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
