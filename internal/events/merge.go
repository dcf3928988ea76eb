package events

import "iter"

// Merge combines two date-ordered event streams into one. When both
// streams have an event on the same date only one survives: Less puts the
// manual event second, and a later arrival on the same date replaces the
// pending one. One event of lookahead is kept, so either stream may be
// unbounded; stopping the result stops both inputs.
func Merge(a, b iter.Seq[Event]) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		nextA, stopA := iter.Pull(a)
		defer stopA()
		nextB, stopB := iter.Pull(b)
		defer stopB()

		ea, okA := nextA()
		eb, okB := nextB()

		var pending Event
		havePending := false

		for okA || okB {
			var ev Event
			switch {
			case okA && okB && eb.Less(ea):
				ev = eb
				eb, okB = nextB()
			case okA:
				ev = ea
				ea, okA = nextA()
			default:
				ev = eb
				eb, okB = nextB()
			}

			if havePending && pending.SameDay(ev) {
				pending = ev
				continue
			}
			if havePending && !yield(pending) {
				return
			}
			pending, havePending = ev, true
		}

		if havePending {
			yield(pending)
		}
	}
}
