// Package report defines the domain types of the daily delivery report batch.
package report

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// AdminID identifies an administrator account whose projects are reported on.
type AdminID string

// emailPattern is a loose shape check: local@label.rest, no TLD validation.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9.-]+$`)

// IsValidEmail reports whether s has the shape of an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Recipients is the recipient value the directory returned for one project.
// The API documents it as a list but sends a single comma-separated string,
// so the raw JSON value is kept and parsed on demand.
type Recipients struct {
	raw json.RawMessage
}

// NewRecipients wraps a raw JSON value.
func NewRecipients(raw json.RawMessage) Recipients {
	return Recipients{raw: bytes.TrimSpace(raw)}
}

// RecipientString wraps a plain comma-separated string.
func RecipientString(s string) Recipients {
	raw, _ := json.Marshal(s)
	return Recipients{raw: raw}
}

// Raw returns the JSON value as received.
func (r Recipients) Raw() json.RawMessage {
	return r.raw
}

// Empty reports whether the value is falsy: missing, null, false, 0, "", [] or {}.
func (r Recipients) Empty() bool {
	if len(r.raw) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(r.raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// Text returns the string value and true when the raw value is a JSON string.
func (r Recipients) Text() (string, bool) {
	if len(r.raw) == 0 || r.raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Addresses parses the value into the valid addresses it contains.
// A non-string value yields nil.
func (r Recipients) Addresses() []string {
	s, ok := r.Text()
	if !ok {
		return nil
	}
	return ParseAddresses(s)
}

// ParseAddresses splits s on commas, trims each token and keeps the ones
// that look like email addresses, in order. Duplicates are kept.
func ParseAddresses(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || !IsValidEmail(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Entry is one project of an administrator's directory.
type Entry struct {
	Project    string
	Recipients Recipients
}

// Directory lists an administrator's projects in the order the API returned them.
type Directory []Entry
