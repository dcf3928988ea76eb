package feed

import (
	"time"

	"pubstandards/internal/events"
)

// EventJSON is the JSON-friendly view of an event.
type EventJSON struct {
	UID         string    `json:"uid"`
	Date        string    `json:"date"`
	Number      int       `json:"number,omitempty"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Location    string    `json:"location"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Cancelled   bool      `json:"cancelled"`
	Manual      bool      `json:"manual"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	PrettyDate  string    `json:"pretty_date"`
	PrettyTime  string    `json:"pretty_time"`
	InThePast   bool      `json:"in_the_past"`
	TimeUntil   string    `json:"time_until"`
}

// ToJSON converts ev relative to now.
func ToJSON(ev events.Event, baseURL string, now time.Time) EventJSON {
	return EventJSON{
		UID:         UID(ev),
		Date:        ev.DateKey(),
		Number:      ev.Ordinal(),
		Title:       ev.Title(),
		Slug:        ev.Slug(),
		Location:    ev.Location,
		Address:     ev.Address,
		Description: ev.Description,
		URL:         EventURL(ev, baseURL),
		Cancelled:   ev.Cancelled,
		Manual:      ev.Manual,
		Start:       ev.StartsAt,
		End:         ev.EndsAt,
		PrettyDate:  ev.PrettyDate(),
		PrettyTime:  string(ev.PrettyTimePeriod()),
		InThePast:   ev.InThePast(now),
		TimeUntil:   ev.TimeUntil(now),
	}
}

// ListJSON converts a slice of events.
func ListJSON(evs []events.Event, baseURL string, now time.Time) []EventJSON {
	out := make([]EventJSON, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ToJSON(ev, baseURL, now))
	}
	return out
}
