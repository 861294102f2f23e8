// Package insights defines the port to the remote insights API.
package insights

import (
	"context"

	"github.com/Strob0t/dailyreport/internal/domain/report"
)

// Directory resolves an administrator's projects and their recipients.
type Directory interface {
	// FetchRecipients returns the project directory for adminID. A failed
	// lookup yields an empty directory, not an error.
	FetchRecipients(ctx context.Context, adminID report.AdminID) (report.Directory, error)
}

// Reports fetches report rows for one project.
type Reports interface {
	// FetchReport returns the rows for (adminID, project). ok is false when the
	// API did not produce a report; that case is not an error.
	FetchReport(ctx context.Context, adminID report.AdminID, project string) (table report.Table, ok bool, err error)
}

// Client is the full insights API surface used by the batch.
type Client interface {
	Directory
	Reports
}
