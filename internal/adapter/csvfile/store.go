// Package csvfile writes report tables as CSV files with unique random names.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Strob0t/dailyreport/internal/domain/report"
)

const (
	filePrefix = "report_"
	fileExt    = ".csv"

	// maxNameAttempts bounds name generation when a candidate already exists.
	maxNameAttempts = 5
)

// Store writes CSV report files into a directory.
type Store struct {
	dir       string
	newSuffix func() string
}

// NewStore creates a Store rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir, newSuffix: randomSuffix}
}

// randomSuffix returns 8 random hex characters.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Write encodes table as CSV into a freshly named file and returns its path.
func (s *Store) Write(table report.Table) (string, error) {
	data, err := Encode(table)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	for range maxNameAttempts {
		path := filepath.Join(s.dir, filePrefix+s.newSuffix()+fileExt)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640) //nolint:gosec // path built from config dir
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create report file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("write report file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close report file: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("create report file: no free name after %d attempts", maxNameAttempts)
}

// Remove deletes a report file. A file that is already gone is not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove report file: %w", err)
	}
	return nil
}

// Encode renders table as CSV: a header of the column union in first-seen
// order, then one line per row with missing cells left empty.
func Encode(table report.Table) ([]byte, error) {
	cols := table.Columns()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(cols); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(cols))
	for _, row := range table.Rows {
		for i, col := range cols {
			v, _ := row.Get(col)
			record[i] = FormatValue(v)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatValue renders one JSON value as a CSV cell.
// Strings are unquoted, null and missing values are empty, booleans are
// True/False, numbers keep their literal, objects and arrays are compact JSON.
func FormatValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case 'n':
		return ""
	case 't':
		return "True"
	case 'f':
		return "False"
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	}
	return string(raw)
}
