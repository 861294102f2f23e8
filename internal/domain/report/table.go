package report

import "encoding/json"

// Field is one named value of a report row.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Row is a report record with its fields in response order.
type Row []Field

// Get returns the value for key and whether it was present.
func (r Row) Get(key string) (json.RawMessage, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Table is the row set returned for one (admin, project) pair.
type Table struct {
	Rows []Row
}

// Columns returns the union of row keys in first-seen order.
func (t Table) Columns() []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, row := range t.Rows {
		for _, f := range row {
			if _, ok := seen[f.Key]; ok {
				continue
			}
			seen[f.Key] = struct{}{}
			cols = append(cols, f.Key)
		}
	}
	return cols
}
