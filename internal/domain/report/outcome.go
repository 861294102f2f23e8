package report

import "time"

// TimestampLayout is the UTC timestamp format used in report emails.
const TimestampLayout = "2006-01-02 15:04:05"

// Subject returns the email subject for a project's report.
func Subject(project string) string {
	return "Daily Delivery Report - " + project
}

// SkipReason explains why a project produced no email.
type SkipReason string

const (
	SkipNoRecipients      SkipReason = "no_recipients"
	SkipEmptyProject      SkipReason = "empty_project"
	SkipNoReport          SkipReason = "no_report"
	SkipInvalidRecipients SkipReason = "invalid_recipients"
	SkipSendFailed        SkipReason = "send_failed"
)

// Outcome tallies one batch run.
type Outcome struct {
	RunID       string
	Admins      int
	Projects    int
	Sent        int
	Skipped     map[SkipReason]int
	ReportFiles []string // report files still on disk after the run
	Duration    time.Duration
}

// NewOutcome returns an Outcome ready for counting.
func NewOutcome(runID string) Outcome {
	return Outcome{RunID: runID, Skipped: make(map[SkipReason]int)}
}

// Skip records one skipped project.
func (o *Outcome) Skip(reason SkipReason) {
	o.Skipped[reason]++
}

// SkippedTotal returns the number of skipped projects across all reasons.
func (o *Outcome) SkippedTotal() int {
	n := 0
	for _, c := range o.Skipped {
		n += c
	}
	return n
}
