// Package journal holds the journal entry model shared by handlers and the
// gamification calculator. Entries are owned by the external backend; this
// service only reads them.
package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Entry is a single journal entry as returned by the backend.
type Entry struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	CreatedAt Time     `json:"created_at"`
	UpdatedAt Time     `json:"updated_at"`
	Mood      *string  `json:"mood,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// HasMood reports whether the entry carries a non-empty mood tag.
func (e Entry) HasMood() bool {
	return e.Mood != nil && strings.TrimSpace(*e.Mood) != ""
}

// WordCount returns the number of whitespace separated words in the content.
func (e Entry) WordCount() int {
	return len(strings.Fields(e.Content))
}

var errNotObject = errors.New("entry is not a JSON object")

// UnmarshalJSON decodes an entry field by field. A field with the wrong type
// decodes to its zero value instead of failing the entry. Only a value that
// is not a JSON object is rejected.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errNotObject
	}

	*e = Entry{
		ID:        field[string](fields, "id"),
		Title:     field[string](fields, "title"),
		Content:   field[string](fields, "content"),
		CreatedAt: field[Time](fields, "created_at"),
		UpdatedAt: field[Time](fields, "updated_at"),
		Mood:      field[*string](fields, "mood"),
		Tags:      field[[]string](fields, "tags"),
	}
	return nil
}

func field[T any](fields map[string]json.RawMessage, key string) T {
	var v T
	raw, ok := fields[key]
	if !ok {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero
	}
	return v
}

// DecodeEntries accepts either a bare JSON array of entries or an
// {"items": [...]} / {"entries": [...]} envelope. Elements that are not
// objects are skipped; the payload as a whole must still be valid JSON.
func DecodeEntries(data []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var raw []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, err
		}
	} else {
		var envelope struct {
			Items   []json.RawMessage `json:"items"`
			Entries []json.RawMessage `json:"entries"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		raw = envelope.Items
		if raw == nil {
			raw = envelope.Entries
		}
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Time is a timestamp that decodes leniently. Missing, null, or unparseable
// values decode to the zero time instead of failing the whole payload.
type Time struct {
	time.Time
}

// layouts accepted by UnmarshalJSON, most specific first.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// MarshalJSON writes RFC3339 or null for the zero time.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. It never returns an error.
func (t *Time) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// null, numbers, objects: treat as missing
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}
