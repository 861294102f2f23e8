// Package adminfile reads the comma-separated administrator ID list.
package adminfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Strob0t/dailyreport/internal/domain/report"
)

// ErrNotFound is returned when the admin ID file does not exist.
var ErrNotFound = errors.New("admin ids file not found")

// Read loads path and returns its comma-separated entries, whitespace-trimmed.
// Empty entries and duplicates are kept as-is.
func Read(path string) ([]report.AdminID, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// Parse splits content on commas and trims each entry.
func Parse(content string) []report.AdminID {
	parts := strings.Split(content, ",")
	ids := make([]report.AdminID, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, report.AdminID(strings.TrimSpace(p)))
	}
	return ids
}
