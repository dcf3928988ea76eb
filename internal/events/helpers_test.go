package events

import (
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"pubstandards/internal/config"
)

const overridesFile = "ps_data.json"

func testConfig(hiatuses ...config.HiatusConfig) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Hiatuses = hiatuses
	return cfg
}

func covidHiatus() config.HiatusConfig {
	return config.HiatusConfig{Start: time.Date(2020, 2, 14, 0, 0, 0, 0, time.UTC)}
}

func newTestSeries(t *testing.T, cfg *config.Config) *Series {
	t.Helper()
	s, err := NewSeries(cfg)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	return s
}

func newTestStore(t *testing.T, doc string) *Store {
	t.Helper()
	fs := memfs.New()
	if err := util.WriteFile(fs, overridesFile, []byte(doc), 0o644); err != nil {
		t.Fatalf("write overrides: %v", err)
	}
	return NewStore(fs, overridesFile)
}

func newTestCalendar(t *testing.T, cfg *config.Config, doc string) *Calendar {
	t.Helper()
	return NewCalendar(newTestSeries(t, cfg), newTestStore(t, doc))
}

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation(DateLayout, s, london(t))
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func strp(s string) *string { return &s }

func boolp(b bool) *bool { return &b }

func dateKeys(evs []Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.DateKey())
	}
	return out
}
