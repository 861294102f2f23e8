// Package reportstore defines the port for persisting report tables as files.
package reportstore

import "github.com/Strob0t/dailyreport/internal/domain/report"

// Store writes report tables to files the notifier can attach.
type Store interface {
	// Write serializes table under a fresh unique name and returns its path.
	Write(table report.Table) (string, error)
	// Remove deletes a previously written file.
	Remove(path string) error
}
