package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Record is one curated override. Every field is optional; a nil field
// keeps the venue default.
type Record struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Starts      *string `json:"starts,omitempty"` // HH:MM
	Ends        *string `json:"ends,omitempty"`   // HH:MM
	Location    *string `json:"location,omitempty"`
	Address     *string `json:"address,omitempty"`
	Cancelled   *bool   `json:"cancelled,omitempty"`
	URL         *string `json:"url,omitempty"`

	// Unknown lists keys present in the document that no field accepts.
	// They are reported and otherwise ignored.
	Unknown []string `json:"-"`
}

var knownFields = map[string]bool{
	"name":        true,
	"description": true,
	"starts":      true,
	"ends":        true,
	"location":    true,
	"address":     true,
	"cancelled":   true,
	"url":         true,
}

func (r *Record) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("record is null, want an object")
	}
	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if !knownFields[strings.ToLower(k)] {
			p.Unknown = append(p.Unknown, k)
		}
	}
	slices.Sort(p.Unknown)

	*r = Record(p)
	return nil
}

// Entry is a record together with its date key, in document order.
type Entry struct {
	Date   string
	Record Record
}

// decodeDocument reads a JSON object of date -> Record, keeping the order
// keys appear in. A repeated key keeps its first position and its last
// value.
func decodeDocument(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("document is not a JSON object")
	}

	var entries []Entry
	pos := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("record %q: %w", key, err)
		}

		if i, seen := pos[key]; seen {
			entries[i].Record = rec
			continue
		}
		pos[key] = len(entries)
		entries = append(entries, Entry{Date: key, Record: rec})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read document end: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after document")
	}
	return entries, nil
}
