package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pubstandards/internal/events"
	"pubstandards/internal/feed"
	"pubstandards/internal/numeral"
	"pubstandards/internal/schedule"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var from, to string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming events",
		Long: "List events starting at --from (default now). With --to, every event up to\n" +
			"and including that day is listed; otherwise the next --limit events.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := ctx.ensureCalendar()
			if err != nil {
				return err
			}
			loc := cal.Series().Location()

			start := time.Now().In(loc)
			if from != "" {
				if start, err = time.ParseInLocation(events.DateLayout, from, loc); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}

			var evs []events.Event
			if to != "" {
				last, err := time.ParseInLocation(events.DateLayout, to, loc)
				if err != nil {
					return fmt.Errorf("--to: %w", err)
				}
				evs, err = cal.Between(schedule.Midnight(start, loc), last.AddDate(0, 0, 1))
				if err != nil {
					return err
				}
			} else {
				if limit <= 0 {
					return errors.New("--limit must be positive")
				}
				if evs, err = cal.Upcoming(start, limit); err != nil {
					return err
				}
			}

			headers := []string{"#", "Numeral", "Date", "Title", "Venue", "Status"}
			rows := make([][]string, 0, len(evs))
			for _, ev := range evs {
				rows = append(rows, eventRow(ev))
			}

			out := cmd.OutOrStdout()
			if isTerminal(out) {
				if len(rows) == 0 {
					fmt.Fprintln(out, "No events in range")
					return nil
				}
				fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignRight}))
				return nil
			}
			fmt.Fprint(out, renderTSV(headers, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day, inclusive (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of events when --to is not set")
	return cmd
}

func eventRow(ev events.Event) []string {
	number, roman := "", ""
	if n := ev.Ordinal(); n > 0 {
		number = strconv.Itoa(n)
		roman, _ = numeral.Roman(n)
	}
	status := "scheduled"
	switch {
	case ev.Cancelled:
		status = "cancelled"
	case ev.Manual:
		status = "override"
	}
	return []string{number, roman, ev.DateKey(), ev.Title(), feed.Venue(ev), status}
}
