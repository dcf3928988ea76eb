package events

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"
)

// Calendar is the entry point for rendering code: the merged event stream
// and the two point lookups. Every call reloads the override document and
// numbers events against it.
type Calendar struct {
	series *Series
	store  *Store
}

func NewCalendar(series *Series, store *Store) *Calendar {
	return &Calendar{series: series, store: store}
}

// Series returns the event builder behind the calendar.
func (c *Calendar) Series() *Series {
	return c.series
}

// load reads the document and returns the series view numbered against it.
func (c *Calendar) load() ([]Entry, *Series, error) {
	entries, err := c.store.Load()
	if err != nil {
		return nil, nil, err
	}
	return entries, c.series.withEntries(entries), nil
}

// Events returns manual and generated events between start and end,
// merged so that a manual event replaces the generated one on its date.
// Zero start or end means unbounded; an unbounded end gives an unbounded
// sequence unless the series is suspended.
func (c *Calendar) Events(start, end time.Time) (iter.Seq[Event], error) {
	entries, series, err := c.load()
	if err != nil {
		return nil, err
	}
	manual, err := series.Manual(entries, start, end)
	if err != nil {
		return nil, err
	}
	return Merge(slices.Values(manual), series.Generated(start, end)), nil
}

// Between collects Events(start, end). end must be set.
func (c *Calendar) Between(start, end time.Time) ([]Event, error) {
	if end.IsZero() {
		return nil, errors.New("calendar: Between needs an end")
	}
	seq, err := c.Events(start, end)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// Upcoming returns at most limit events that have not ended at now.
func (c *Calendar) Upcoming(now time.Time, limit int) ([]Event, error) {
	seq, err := c.Events(now, time.Time{})
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, limit)
	for ev := range seq {
		if len(out) >= limit {
			break
		}
		out = append(out, ev)
	}
	return out, nil
}

// Next returns the first event that has not ended at now.
func (c *Calendar) Next(now time.Time) (Event, bool, error) {
	evs, err := c.Upcoming(now, 1)
	if err != nil || len(evs) == 0 {
		return Event{}, false, err
	}
	return evs[0], true, nil
}

// ByNumber returns the n-th event, with its override applied when the
// document has one for that date.
func (c *Calendar) ByNumber(n int) (Event, error) {
	entries, series, err := c.load()
	if err != nil {
		return Event{}, err
	}
	date, err := series.schedule.DateOf(n)
	if err != nil {
		return Event{}, err
	}
	key := date.Format(DateLayout)
	var rec Record
	found := false
	if i := slices.IndexFunc(entries, func(e Entry) bool { return e.Date == key }); i >= 0 {
		rec, found = entries[i].Record, true
	}
	ev, err := series.NewOn(rec, date, found)
	if err != nil {
		return Event{}, fmt.Errorf("event %d: %w", n, err)
	}
	return ev, nil
}

// BySlug returns the first manual event, in document order, whose slug is
// s. Generated events are not searched.
func (c *Calendar) BySlug(s string) (Event, bool, error) {
	entries, series, err := c.load()
	if err != nil {
		return Event{}, false, err
	}
	for _, e := range entries {
		ev, err := series.New(e.Record, e.Date, true)
		if err != nil {
			return Event{}, false, err
		}
		if ev.Slug() == s {
			return ev, true, nil
		}
	}
	return Event{}, false, nil
}
