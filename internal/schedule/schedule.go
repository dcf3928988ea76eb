// Package schedule maps between dates and event ordinals for a series that
// recurs according to an RRULE anchored at a fixed epoch.
package schedule

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"pubstandards/internal/clock"
	"pubstandards/internal/hiatus"
)

// Config describes the recurrence grid.
type Config struct {
	// Rule is an RRULE body, e.g. "FREQ=MONTHLY;BYDAY=TH;BYMONTHDAY=10,11,12,13,14,15,16".
	// DTSTART must not be part of it; Epoch is used instead.
	Rule string
	// Epoch is the calendar date from which the grid is generated.
	// Ordinal 1 is the first grid date on or after it.
	Epoch time.Time
	// Location is the series timezone. Grid dates are midnight in it.
	Location *time.Location
	// Starts is the time of day used to decide hiatus membership.
	Starts clock.Clock
	// Hiatus suspends grid dates; suspended dates get no ordinal.
	Hiatus *hiatus.Set
}

// Schedule is the numbering collaborator: date to ordinal, ordinal to
// date, and the lazy grid itself. It holds no mutable state.
type Schedule struct {
	rule   string
	epoch  time.Time
	loc    *time.Location
	starts clock.Clock
	hiatus *hiatus.Set
	// held are dates inside a hiatus on which an event was held anyway,
	// sorted and unique. Each claims its own number.
	held []time.Time
}

var (
	ErrBadOrdinal = errors.New("schedule: ordinal must be at least 1")
	ErrNotHeld    = errors.New("schedule: occurrence is not held")
)

// New validates cfg and returns a Schedule.
func New(cfg Config) (*Schedule, error) {
	if cfg.Location == nil {
		return nil, errors.New("schedule: location is nil")
	}
	if strings.TrimSpace(cfg.Rule) == "" {
		return nil, errors.New("schedule: rule is empty")
	}
	if strings.Contains(strings.ToUpper(cfg.Rule), "DTSTART") {
		return nil, errors.New("schedule: rule must not carry DTSTART; set the epoch instead")
	}
	if cfg.Epoch.IsZero() {
		return nil, errors.New("schedule: epoch is zero")
	}

	s := &Schedule{
		rule:   cfg.Rule,
		epoch:  Midnight(cfg.Epoch, cfg.Location),
		loc:    cfg.Location,
		starts: cfg.Starts,
		hiatus: cfg.Hiatus,
	}

	// Parse once up front so a bad rule fails at startup.
	if _, err := s.newRule(); err != nil {
		return nil, err
	}
	return s, nil
}

// Midnight returns the calendar date of t, as seen in loc, at 00:00 in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// Window is the default listing range around now: from midnight
// backfillDays before today up to, but excluding, midnight of the day after
// today plus horizonDays. All listings (API, feed, export) share it.
func Window(now time.Time, loc *time.Location, backfillDays, horizonDays int) (start, end time.Time) {
	today := Midnight(now, loc)
	return today.AddDate(0, 0, -backfillDays), today.AddDate(0, 0, horizonDays+1)
}

// Location returns the series timezone.
func (s *Schedule) Location() *time.Location {
	return s.loc
}

// Epoch returns the series epoch at midnight in the series timezone.
func (s *Schedule) Epoch() time.Time {
	return s.epoch
}

func (s *Schedule) newRule() (*rrule.RRule, error) {
	opt, err := rrule.StrToROption(s.rule)
	if err != nil {
		return nil, fmt.Errorf("schedule: parse rule %q: %w", s.rule, err)
	}
	opt.Dtstart = s.epoch
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("schedule: build rule %q: %w", s.rule, err)
	}
	return r, nil
}

// grid yields every grid date from the epoch onwards, hiatus included,
// normalised to midnight in the series timezone.
func (s *Schedule) grid() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		r, err := s.newRule()
		if err != nil {
			// New already parsed this rule successfully.
			panic(err)
		}
		next := r.Iterator()
		for {
			t, ok := next()
			if !ok {
				return
			}
			if !yield(Midnight(t, s.loc)) {
				return
			}
		}
	}
}

// OnHiatus reports whether the occurrence on date would start inside a
// hiatus window.
func (s *Schedule) OnHiatus(date time.Time) bool {
	return s.hiatus.Contains(s.starts.On(Midnight(date, s.loc)))
}

// WithHeld returns a copy of s in which those of dates that fall inside a
// hiatus are numbered like held occurrences, in date order. Dates outside
// every hiatus, or before the epoch, are ignored.
func (s *Schedule) WithHeld(dates []time.Time) *Schedule {
	held := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := Midnight(d, s.loc)
		if day.Before(s.epoch) || !s.OnHiatus(day) {
			continue
		}
		held = append(held, day)
	}
	slices.SortFunc(held, func(a, b time.Time) int { return a.Compare(b) })
	held = slices.CompactFunc(held, func(a, b time.Time) bool { return a.Equal(b) })

	c := *s
	c.held = held
	return &c
}

// occurrences yields every numbered date in order: grid dates outside a
// hiatus plus held dates inside one. It ends once the grid is inside a
// hiatus with no end and no held date remains.
func (s *Schedule) occurrences() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		i := 0
		for d := range s.grid() {
			for i < len(s.held) && s.held[i].Before(d) {
				if !yield(s.held[i]) {
					return
				}
				i++
			}
			if i < len(s.held) && s.held[i].Equal(d) {
				i++
				if !yield(d) {
					return
				}
				continue
			}
			if s.OnHiatus(d) {
				if s.Suspended(d) && i == len(s.held) {
					return
				}
				continue
			}
			if !yield(d) {
				return
			}
		}
		for ; i < len(s.held); i++ {
			if !yield(s.held[i]) {
				return
			}
		}
	}
}

// Ordinal returns the sequential number of the event held on date: one
// more than the count of numbered dates strictly before it (grid dates
// outside a hiatus, and held dates inside one). Dates before the epoch
// have no number and yield 0.
func (s *Schedule) Ordinal(date time.Time) int {
	if !s.Numbered(date) {
		return 0
	}
	day := Midnight(date, s.loc)
	n := 1
	for d := range s.occurrences() {
		if !d.Before(day) {
			break
		}
		n++
	}
	return n
}

// Numbered reports whether date is on or after the series epoch and so has
// a meaningful ordinal.
func (s *Schedule) Numbered(date time.Time) bool {
	return !Midnight(date, s.loc).Before(s.epoch)
}

// DateOf returns the date of the n-th held occurrence.
func (s *Schedule) DateOf(n int) (time.Time, error) {
	if n < 1 {
		return time.Time{}, fmt.Errorf("%w: got %d", ErrBadOrdinal, n)
	}
	i := 0
	for d := range s.occurrences() {
		i++
		if i == n {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %d (series suspended after %d)", ErrNotHeld, n, i)
}

// Suspended reports whether date falls inside a hiatus that has no end,
// after which the grid yields nothing that will be held.
func (s *Schedule) Suspended(date time.Time) bool {
	at := s.starts.On(Midnight(date, s.loc))
	for _, w := range s.hiatus.Windows() {
		if w.Ongoing() && w.Contains(at) {
			return true
		}
	}
	return false
}

// Dates yields grid dates whose calendar day is on or after from's
// calendar day, hiatus included. The sequence is unbounded unless the rule
// itself carries COUNT or UNTIL; callers stop it by returning false.
func (s *Schedule) Dates(from time.Time) iter.Seq[time.Time] {
	var day time.Time
	if !from.IsZero() {
		day = Midnight(from, s.loc)
	}
	return func(yield func(time.Time) bool) {
		for d := range s.grid() {
			if d.Before(day) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}
