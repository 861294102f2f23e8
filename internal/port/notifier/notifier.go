// Package notifier defines the port for delivering report emails.
package notifier

import (
	"context"
	"errors"

	"github.com/Strob0t/dailyreport/internal/domain/report"
)

// ErrSendFailed wraps any failure to build or deliver a report email.
var ErrSendFailed = errors.New("notifier: send failed")

// ReportNotifier delivers a report file to a project's recipients.
type ReportNotifier interface {
	// SendReport validates recipients and emails the file to them.
	// It returns sent=false with a nil error when there is nobody valid to
	// send to; build and delivery failures are returned as errors.
	SendReport(ctx context.Context, project string, recipients report.Recipients, filePath string) (sent bool, err error)
}
