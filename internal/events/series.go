package events

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"time"

	"pubstandards/internal/clock"
	"pubstandards/internal/config"
	"pubstandards/internal/hiatus"
	"pubstandards/internal/schedule"
)

// Series builds events: it owns the venue defaults, the timezone and the
// numbering schedule. It is immutable once built.
type Series struct {
	name     string
	loc      *time.Location
	venue    config.VenueConfig
	schedule *schedule.Schedule
}

// NewSeries validates the series, venue and hiatus sections of cfg.
func NewSeries(cfg *config.Config) (*Series, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("series: timezone %q: %w", cfg.Timezone, err)
	}

	epoch, err := time.ParseInLocation(DateLayout, cfg.Series.Epoch, loc)
	if err != nil {
		return nil, fmt.Errorf("series: epoch %q: %w", cfg.Series.Epoch, err)
	}

	windows := make([]hiatus.Window, 0, len(cfg.Hiatuses))
	for _, h := range cfg.Hiatuses {
		windows = append(windows, hiatus.Window{Start: h.Start, End: h.End})
	}
	hs, err := hiatus.NewSet(windows...)
	if err != nil {
		return nil, fmt.Errorf("series: %w", err)
	}

	sched, err := schedule.New(schedule.Config{
		Rule:     cfg.Series.Rule,
		Epoch:    epoch,
		Location: loc,
		Starts:   cfg.Venue.Starts,
		Hiatus:   hs,
	})
	if err != nil {
		return nil, fmt.Errorf("series: %w", err)
	}

	return &Series{
		name:     cfg.Series.Name,
		loc:      loc,
		venue:    cfg.Venue,
		schedule: sched,
	}, nil
}

// Name is the series name used in generated titles.
func (s *Series) Name() string {
	return s.name
}

// Location is the series timezone.
func (s *Series) Location() *time.Location {
	return s.loc
}

// Schedule exposes the numbering collaborator.
func (s *Series) Schedule() *schedule.Schedule {
	return s.schedule
}

// withEntries returns a view of s whose numbering also counts the dates of
// entries that fall inside a hiatus, so manual events held during a hiatus
// each get their own number. Unparseable dates are left for New to report.
func (s *Series) withEntries(entries []Entry) *Series {
	dates := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		d, err := time.ParseInLocation(DateLayout, e.Date, s.loc)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	c := *s
	c.schedule = s.schedule.WithHeld(dates)
	return &c
}

// Default returns the generated event for date, with venue defaults only.
func (s *Series) Default(date time.Time) Event {
	ev := s.base(schedule.Midnight(date, s.loc), false)
	ev.finish()
	return ev
}

func (s *Series) base(day time.Time, manual bool) Event {
	return Event{
		Date:        day,
		Starts:      s.venue.Starts,
		Ends:        s.venue.Ends,
		Location:    s.venue.Location,
		Address:     s.venue.Address,
		Description: s.venue.Description,
		Manual:      manual,
		series:      s,
	}
}

func (e *Event) finish() {
	e.StartsAt = e.Starts.On(e.Date)
	e.EndsAt = e.Ends.On(e.Date)
}

// New builds an event for a YYYY-MM-DD date with rec applied over the
// venue defaults.
func (s *Series) New(rec Record, date string, manual bool) (Event, error) {
	day, err := time.ParseInLocation(DateLayout, date, s.loc)
	if err != nil {
		return Event{}, fmt.Errorf("event %q: bad date: %w", date, err)
	}
	return s.NewOn(rec, day, manual)
}

// NewOn is New for an already parsed date.
func (s *Series) NewOn(rec Record, date time.Time, manual bool) (Event, error) {
	ev := s.base(schedule.Midnight(date, s.loc), manual)

	if rec.Name != nil {
		ev.Name = *rec.Name
	}
	if rec.Description != nil {
		ev.Description = *rec.Description
	}
	if rec.Location != nil {
		ev.Location = *rec.Location
	}
	if rec.Address != nil {
		ev.Address = *rec.Address
	}
	if rec.URL != nil {
		ev.URL = *rec.URL
	}
	if rec.Cancelled != nil {
		ev.Cancelled = *rec.Cancelled
	}
	if rec.Starts != nil {
		c, err := clock.Parse(*rec.Starts)
		if err != nil {
			return Event{}, fmt.Errorf("event %s: bad starts: %w", ev.DateKey(), err)
		}
		ev.Starts = c
	}
	if rec.Ends != nil {
		c, err := clock.Parse(*rec.Ends)
		if err != nil {
			return Event{}, fmt.Errorf("event %s: bad ends: %w", ev.DateKey(), err)
		}
		ev.Ends = c
	}

	ev.finish()
	return ev, nil
}

// Generated yields the default event for every grid date, lazily and in
// date order. Events starting inside a hiatus are skipped; once the grid
// runs into a hiatus with no end the sequence stops, since nothing more
// can ever be generated.
//
// Events that end before start are skipped. Generation stops at the first
// event that does not end before end. Zero start or end means unbounded.
func (s *Series) Generated(start, end time.Time) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for d := range s.schedule.Dates(start) {
			ev := s.Default(d)
			if !end.IsZero() && !ev.EndsAt.Before(end) {
				return
			}
			if !start.IsZero() && ev.EndsAt.Before(start) {
				continue
			}
			if s.schedule.OnHiatus(d) {
				if s.schedule.Suspended(d) {
					return
				}
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Manual builds the manual events from entries and sorts them by date.
// An event is dropped when it ends before start, and kept only when end is
// zero or it ends before end. An event that ends after start is kept even
// if it starts before it.
func (s *Series) Manual(entries []Entry, start, end time.Time) ([]Event, error) {
	out := make([]Event, 0, len(entries))
	for _, e := range entries {
		ev, err := s.New(e.Record, e.Date, true)
		if err != nil {
			return nil, err
		}
		if !start.IsZero() && ev.EndsAt.Before(start) {
			continue
		}
		if !end.IsZero() && !ev.EndsAt.Before(end) {
			continue
		}
		out = append(out, ev)
	}
	slices.SortStableFunc(out, func(a, b Event) int {
		return cmp.Compare(a.DateKey(), b.DateKey())
	})
	return out, nil
}
