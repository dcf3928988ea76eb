package events

import (
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosimple/slug"

	"pubstandards/internal/clock"
	"pubstandards/internal/numeral"
)

// DateLayout is the format of override keys and date query parameters.
const DateLayout = "2006-01-02"

const happeningNow = "Happening right now! Get to the pub!"

// Event is one occurrence of the meetup, generated or curated. Events are
// built by a Series and are not modified afterwards.
type Event struct {
	// Date is the calendar date at midnight in the series timezone.
	Date time.Time

	Starts clock.Clock
	Ends   clock.Clock

	Location    string
	Address     string
	Name        string // empty means "use the numbered title"
	Description string
	URL         string

	Cancelled bool
	// Manual is true for events that come from the override document.
	Manual bool

	// StartsAt / EndsAt combine Date with Starts / Ends in the series zone.
	StartsAt time.Time
	EndsAt   time.Time

	series *Series
}

// DateKey returns the event date as YYYY-MM-DD.
func (e Event) DateKey() string {
	return e.Date.Format(DateLayout)
}

// SameDay reports whether both events fall on the same calendar date.
func (e Event) SameDay(o Event) bool {
	ay, am, ad := e.Date.Date()
	by, bm, bd := o.Date.Date()
	return ay == by && am == bm && ad == bd
}

// Less orders events by calendar date. On the same date a generated event
// sorts before a manual one, so a merge sees the manual event second.
//
// This is not a strict weak ordering (two manual events, or two generated
// events, on one date are mutually not-less); it is only meant for
// merging two streams that are each already sorted.
func (e Event) Less(o Event) bool {
	if !e.SameDay(o) {
		return e.Date.Before(o.Date)
	}
	return o.Manual && !e.Manual
}

// Ordinal is the sequential number of the event, recomputed from its date.
// Zero means the date precedes the series.
func (e Event) Ordinal() int {
	if e.series == nil {
		return 0
	}
	return e.series.schedule.Ordinal(e.Date)
}

// Title is the override name, or the series name followed by the ordinal
// in Roman numerals.
func (e Event) Title() string {
	if e.Name != "" {
		return e.Name
	}
	name := "Pub Standards"
	if e.series != nil {
		name = e.series.name
	}
	roman, err := numeral.Roman(e.Ordinal())
	if err != nil {
		return name
	}
	return name + " " + roman
}

// Slug is the URL-safe form of the title.
func (e Event) Slug() string {
	return slug.Make(e.Title())
}

// PrettyDate renders e.g. "Thursday March 12, 2020".
func (e Event) PrettyDate() string {
	return e.StartsAt.Format("Monday January 2, 2006")
}

// PrettyTimePeriod renders e.g. "6:00 PM&ndash;11:30 PM GMT" for direct
// use in an HTML template.
func (e Event) PrettyTimePeriod() template.HTML {
	return template.HTML(e.StartsAt.Format("3:04 PM") + "&ndash;" + e.EndsAt.Format("3:04 PM MST"))
}

// InThePast reports whether the event has ended at now.
func (e Event) InThePast(now time.Time) bool {
	return now.After(e.EndsAt)
}

// HappeningNow reports whether now lies strictly between start and end.
func (e Event) HappeningNow(now time.Time) bool {
	return e.StartsAt.Before(now) && now.Before(e.EndsAt)
}

// TimeUntil describes the start relative to now ("3 days from now",
// "2 weeks ago"), or says the event is on right now.
func (e Event) TimeUntil(now time.Time) string {
	if e.HappeningNow(now) {
		return happeningNow
	}
	return humanize.RelTime(e.StartsAt, now, "ago", "from now")
}
