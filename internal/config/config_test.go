package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pubstandards/internal/clock"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "Europe/London" || cfg.Series.Name != "Pub Standards" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config perms = %o, want 600", perm)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Venue != cfg.Venue {
		t.Fatalf("venue changed across save/load: %+v vs %+v", again.Venue, cfg.Venue)
	}
	if len(again.Hiatuses) != 1 || again.Hiatuses[0].End != nil {
		t.Fatalf("hiatuses = %+v", again.Hiatuses)
	}
	if !again.Hiatuses[0].Start.Equal(time.Date(2020, 2, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("hiatus start = %v", again.Hiatuses[0].Start)
	}
}

func TestLoadPartialConfigIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
timezone: Europe/Berlin
venue:
  location: Somewhere Else
  starts: "19:15"
hiatuses:
  - start: 2010-01-01T00:00:00Z
    end: 2010-03-01T00:00:00Z
export:
  horizon_days: -4
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Fatalf("timezone = %q", cfg.Timezone)
	}
	if cfg.Venue.Location != "Somewhere Else" || cfg.Venue.Address != defaultAddress {
		t.Fatalf("venue = %+v", cfg.Venue)
	}
	if cfg.Venue.Starts != clock.New(19, 15) || cfg.Venue.Ends != clock.New(23, 30) {
		t.Fatalf("venue clocks = %v-%v", cfg.Venue.Starts, cfg.Venue.Ends)
	}
	if cfg.Export.HorizonDays != defaultHorizonDays {
		t.Fatalf("horizon = %d", cfg.Export.HorizonDays)
	}
	if len(cfg.Hiatuses) != 1 || cfg.Hiatuses[0].End == nil {
		t.Fatalf("hiatuses = %+v", cfg.Hiatuses)
	}
}

func TestLoadRejectsBadClock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("venue:\n  ends: late\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed clock")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected error")
	}
}

func TestDataPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DataPath("/etc/pubstandards/config.yaml"); got != "/etc/pubstandards/ps_data.json" {
		t.Fatalf("relative data path = %q", got)
	}
	cfg.DataFile = "/srv/ps_data.json"
	if got := cfg.DataPath("/etc/pubstandards/config.yaml"); got != "/srv/ps_data.json" {
		t.Fatalf("absolute data path = %q", got)
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := WriteFileAtomic(path, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "two" {
		t.Fatalf("content = %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}
