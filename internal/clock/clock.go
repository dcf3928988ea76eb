// Package clock holds wall-clock times of day such as a venue's opening
// and closing times.
package clock

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

const layout = "15:04"

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// New returns the Clock for hour:minute.
func New(hour, minute int) Clock {
	return Clock{Hour: hour, Minute: minute}
}

// Parse reads an "HH:MM" string.
func Parse(s string) (Clock, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("clock: parse %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustParse is Parse for constants; it panics on bad input.
func MustParse(s string) Clock {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// On combines the clock with the calendar date of d, in d's location.
func (c Clock) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, d.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) MarshalYAML() (any, error) {
	return c.String(), nil
}

func (c *Clock) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
