// Package hiatus tracks the windows during which the meetup series was
// suspended. Generated occurrences inside a window are not held; manual
// events are unaffected and never consult this package.
package hiatus

import (
	"fmt"
	"time"

	"github.com/rdleal/intervalst/interval"
)

// openEnd stands in for "still ongoing" inside the search tree.
var openEnd = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Window is a hiatus. A nil End means the hiatus is still ongoing.
type Window struct {
	Start time.Time
	End   *time.Time
}

// Contains reports whether t falls strictly inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.Before(t) {
		return false
	}
	return w.End == nil || w.End.After(t)
}

// Ongoing reports whether the window has no end.
func (w Window) Ongoing() bool {
	return w.End == nil
}

// Set is an immutable, indexed collection of windows.
type Set struct {
	windows []Window
	tree    *interval.SearchTree[int, time.Time]
}

// NewSet indexes the given windows. A window whose end is not after its
// start is rejected.
func NewSet(windows ...Window) (*Set, error) {
	s := &Set{
		windows: make([]Window, 0, len(windows)),
		tree:    interval.NewSearchTree[int](func(x, y time.Time) int { return x.Compare(y) }),
	}
	for _, w := range windows {
		end := openEnd
		if w.End != nil {
			if !w.End.After(w.Start) {
				return nil, fmt.Errorf("hiatus: window ends (%s) before it starts (%s)",
					w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
			}
			end = *w.End
		}
		idx := len(s.windows)
		s.windows = append(s.windows, w)
		if err := s.tree.Insert(w.Start, end, idx); err != nil {
			return nil, fmt.Errorf("hiatus: index window %d: %w", idx, err)
		}
	}
	return s, nil
}

// Contains reports whether t falls strictly inside any window. A nil Set
// contains nothing.
func (s *Set) Contains(t time.Time) bool {
	if s == nil || len(s.windows) == 0 {
		return false
	}
	// The tree narrows candidates; the strict bounds are checked per window.
	idxs, ok := s.tree.AllIntersections(t, t)
	if !ok {
		return false
	}
	for _, i := range idxs {
		if s.windows[i].Contains(t) {
			return true
		}
	}
	return false
}

// Windows returns a copy of the configured windows.
func (s *Set) Windows() []Window {
	if s == nil {
		return nil
	}
	out := make([]Window, len(s.windows))
	copy(out, s.windows)
	return out
}
