// Package engine computes ranked, paginated scheduling suggestions from a
// snapshot of a user's availability and sessions. It performs no I/O and
// holds no state between calls; callers supply pre-fetched data, the current
// instant, and the user's timezone.
package engine

import (
	"sort"
	"time"
)

// Window is a half-open interval [Start, End) over absolute instants.
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether a and b intersect. Intervals are half-open, so
// windows that merely touch at an endpoint do not overlap.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// DurationMinutes returns the window length in whole minutes.
func DurationMinutes(w Window) int {
	return int(w.End.Sub(w.Start) / time.Minute)
}

// Subtract removes every occupied interval from w and returns the remaining
// free sub-intervals in start order. An occupied interval strictly interior
// to w splits it in two.
func Subtract(w Window, occupied []Window) []Window {
	free := []Window{w}
	for _, busy := range occupied {
		next := free[:0:0]
		for _, f := range free {
			if !Overlaps(f, busy) {
				next = append(next, f)
				continue
			}
			if busy.Start.After(f.Start) {
				next = append(next, Window{Start: f.Start, End: busy.Start})
			}
			if busy.End.Before(f.End) {
				next = append(next, Window{Start: busy.End, End: f.End})
			}
		}
		free = next
	}
	return free
}

// Merge sorts the windows and coalesces any that overlap or touch, so
// contiguous free time is always represented as a single interval.
func Merge(ws []Window) []Window {
	if len(ws) == 0 {
		return nil
	}
	sorted := make([]Window, len(ws))
	copy(sorted, ws)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Window{sorted[0]}
	for _, w := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !w.Start.After(last.End) {
			if w.End.After(last.End) {
				last.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}
