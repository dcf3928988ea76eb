// Package export writes the static calendar files (calendar.ics and
// events.json) that the public site serves.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"pubstandards/internal/config"
	"pubstandards/internal/events"
	"pubstandards/internal/feed"
	appLog "pubstandards/internal/log"
	"pubstandards/internal/metrics"
	"pubstandards/internal/schedule"
)

const (
	ICSFile  = "calendar.ics"
	JSONFile = "events.json"
	lockFile = ".export.lock"
)

// ErrBusy is returned when another export holds the lock.
var ErrBusy = errors.New("export: another export is running")

// Options describes one export run.
type Options struct {
	Dir          string
	Name         string
	BaseURL      string
	HorizonDays  int
	BackfillDays int
}

// OptionsFromConfig derives export options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Dir:          cfg.Export.Dir,
		Name:         cfg.Series.Name,
		BaseURL:      cfg.BaseURL,
		HorizonDays:  cfg.Export.HorizonDays,
		BackfillDays: cfg.Export.BackfillDays,
	}
}

// Result summarises a successful run.
type Result struct {
	Events   int
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

type document struct {
	Generated time.Time        `json:"generated"`
	Start     time.Time        `json:"range_start"`
	End       time.Time        `json:"range_end"`
	Events    []feed.EventJSON `json:"events"`
}

// Exporter renders the calendar into a directory.
type Exporter struct {
	cal  *events.Calendar
	opts Options
	now  func() time.Time
}

func New(cal *events.Calendar, opts Options) *Exporter {
	return &Exporter{cal: cal, opts: opts, now: time.Now}
}

// Run writes both files for [now - backfill, now + horizon). Files are
// replaced atomically; a concurrent run in any process gets ErrBusy.
func (e *Exporter) Run(trigger string) (Result, error) {
	started := time.Now()
	res, err := e.run()
	res.Duration = time.Since(started)

	status := "ok"
	switch {
	case errors.Is(err, ErrBusy):
		status = "busy"
	case err != nil:
		status = "error"
	}
	metrics.Exports.WithLabelValues(trigger, status).Inc()

	if err != nil {
		appLog.Error("export failed", err, "trigger", trigger, "dir", e.opts.Dir)
		return res, err
	}
	metrics.ExportDuration.Observe(float64(res.Duration.Milliseconds()))
	metrics.ExportedEvents.Set(float64(res.Events))
	appLog.Info("export completed",
		"trigger", trigger,
		"dir", e.opts.Dir,
		"events", res.Events,
		"duration", res.Duration,
	)
	return res, nil
}

func (e *Exporter) run() (Result, error) {
	if e.opts.Dir == "" {
		return Result{}, errors.New("export: output dir is empty")
	}
	if err := os.MkdirAll(e.opts.Dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("export: create dir: %w", err)
	}

	lock := flock.New(filepath.Join(e.opts.Dir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("export: lock: %w", err)
	}
	if !locked {
		return Result{}, ErrBusy
	}
	defer lock.Unlock()

	now := e.now()
	start, end := schedule.Window(now, e.cal.Series().Location(), e.opts.BackfillDays, e.opts.HorizonDays)

	evs, err := e.cal.Between(start, end)
	if err != nil {
		return Result{}, fmt.Errorf("export: collect events: %w", err)
	}

	ics := feed.BuildICS(evs, feed.Options{Name: e.opts.Name, BaseURL: e.opts.BaseURL, Stamp: now})
	if err := config.WriteFileAtomic(filepath.Join(e.opts.Dir, ICSFile), []byte(ics), 0o644); err != nil {
		return Result{}, fmt.Errorf("export: write %s: %w", ICSFile, err)
	}

	doc := document{
		Generated: now,
		Start:     start,
		End:       end,
		Events:    feed.ListJSON(evs, e.opts.BaseURL, now),
	}
	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("export: encode %s: %w", JSONFile, err)
	}
	if err := config.WriteFileAtomic(filepath.Join(e.opts.Dir, JSONFile), data, 0o644); err != nil {
		return Result{}, fmt.Errorf("export: write %s: %w", JSONFile, err)
	}

	return Result{Events: len(evs), Start: start, End: end}, nil
}
