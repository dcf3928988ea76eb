package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pubstandards/internal/events"
	"pubstandards/internal/feed"
	"pubstandards/internal/numeral"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <number|numeral|slug>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cal, err := ctx.ensureCalendar()
			if err != nil {
				return err
			}
			ev, err := resolveEvent(cal, args[0])
			if err != nil {
				return err
			}
			printEvent(cmd.OutOrStdout(), ev, cfg.BaseURL, time.Now())
			return nil
		},
	}
}

// resolveEvent treats arg as an ordinal when it is a decimal or Roman
// number, and as a slug otherwise.
func resolveEvent(cal *events.Calendar, arg string) (events.Event, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		n, err = numeral.ParseRoman(arg)
	}
	if err == nil {
		return cal.ByNumber(n)
	}

	ev, ok, err := cal.BySlug(arg)
	if err != nil {
		return events.Event{}, err
	}
	if !ok {
		return events.Event{}, fmt.Errorf("no event with slug %q", arg)
	}
	return ev, nil
}

func printEvent(w io.Writer, ev events.Event, baseURL string, now time.Time) {
	j := feed.ToJSON(ev, baseURL, now)
	line := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "%-12s %s\n", k+":", v)
		}
	}
	line("Title", j.Title)
	if j.Number > 0 {
		line("Number", strconv.Itoa(j.Number))
	}
	line("Date", j.PrettyDate)
	line("Time", ev.StartsAt.Format("15:04")+"-"+ev.EndsAt.Format("15:04 MST"))
	line("Venue", feed.Venue(ev))
	line("Description", j.Description)
	line("URL", j.URL)
	line("When", j.TimeUntil)
	if j.Cancelled {
		line("Status", "cancelled")
	}
}
