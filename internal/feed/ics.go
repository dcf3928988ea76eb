// Package feed renders events for machines: an iCalendar feed and a JSON
// view shared by the API and the static export.
package feed

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"pubstandards/internal/events"
)

const productID = "-//Pub Standards//Calendar//EN"

// uidNamespace scopes the name-based UIDs of events.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://pubstandards.com/events"))

// Options controls feed rendering.
type Options struct {
	// Name is the calendar name shown by clients.
	Name string
	// BaseURL builds event links when a record has no URL of its own.
	BaseURL string
	// Stamp is the DTSTAMP written on every event.
	Stamp time.Time
}

// UID is the stable iCalendar UID for the event held on date: at most one
// event exists per date, so the date identifies it across renames.
func UID(ev events.Event) string {
	return uuid.NewSHA1(uidNamespace, []byte(ev.DateKey())).String() + "@pubstandards"
}

// EventURL is the record URL, or the event page under baseURL. Pages are
// keyed by date: at most one event exists per date, while titles (and so
// slugs) are only unique for manual events.
func EventURL(ev events.Event, baseURL string) string {
	if ev.URL != "" {
		return ev.URL
	}
	return strings.TrimSuffix(baseURL, "/") + "/events/" + ev.DateKey()
}

// Venue joins location and address for display.
func Venue(ev events.Event) string {
	switch {
	case ev.Address == "":
		return ev.Location
	case ev.Location == "":
		return ev.Address
	default:
		return ev.Location + ", " + ev.Address
	}
}

// BuildICS renders evs as a VCALENDAR document.
func BuildICS(evs []events.Event, opts Options) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, ev := range evs {
		ve := cal.AddEvent(UID(ev))
		ve.SetDtStampTime(stamp.UTC())
		ve.SetStartAt(ev.StartsAt.UTC())
		ve.SetEndAt(ev.EndsAt.UTC())
		ve.SetSummary(ev.Title())
		if v := Venue(ev); v != "" {
			ve.SetLocation(v)
		}
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		ve.SetURL(EventURL(ev, opts.BaseURL))
		if ev.Cancelled {
			ve.SetStatus(ical.ObjectStatusCancelled)
		} else {
			ve.SetStatus(ical.ObjectStatusConfirmed)
		}
	}

	return cal.Serialize()
}
