package events

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	appLog "pubstandards/internal/log"
	"pubstandards/internal/metrics"
)

// Store reads the override document. It never caches and never writes:
// each call sees the file as it is on disk at that moment.
type Store struct {
	fs   billy.Filesystem
	name string
}

// NewStore reads the document called name from fs.
func NewStore(fs billy.Filesystem, name string) *Store {
	return &Store{fs: fs, name: name}
}

// OpenStore returns a Store for a document on the local filesystem.
func OpenStore(path string) *Store {
	dir, file := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	return NewStore(osfs.New(dir), file)
}

// Name is the document name within the store filesystem.
func (s *Store) Name() string {
	return s.name
}

// Load reads and decodes the whole document. A missing file or malformed
// JSON is an error.
func (s *Store) Load() ([]Entry, error) {
	f, err := s.fs.Open(s.name)
	if err != nil {
		metrics.OverrideLoads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("open overrides %s: %w", s.name, err)
	}
	defer f.Close()

	entries, err := decodeDocument(f)
	if err != nil {
		metrics.OverrideLoads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parse overrides %s: %w", s.name, err)
	}

	for _, e := range entries {
		if len(e.Record.Unknown) == 0 {
			continue
		}
		metrics.UnknownOverrideFields.Add(float64(len(e.Record.Unknown)))
		appLog.Warn("ignoring unknown override fields", "date", e.Date, "fields", e.Record.Unknown)
	}

	metrics.OverrideLoads.WithLabelValues("ok").Inc()
	appLog.Debug("overrides loaded", "file", s.name, "count", len(entries))
	return entries, nil
}

// Lookup returns the record stored for date (YYYY-MM-DD), if any.
func (s *Store) Lookup(date string) (Record, bool, error) {
	entries, err := s.Load()
	if err != nil {
		return Record{}, false, err
	}
	for _, e := range entries {
		if e.Date == date {
			return e.Record, true, nil
		}
	}
	return Record{}, false, nil
}

// Validate decodes a candidate document without keeping it, so a
// replacement can be checked before it is written over the live file.
func Validate(r io.Reader) (int, error) {
	entries, err := decodeDocument(r)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
