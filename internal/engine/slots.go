package engine

import "time"

type slotKey struct {
	start int64
	end   int64
}

// TileSlots tiles each free window into candidate slots of exactly duration,
// starting at the window's start and stepping by the duration, so candidates
// within one window never overlap. A trailing remainder shorter than the
// duration is discarded. Slots starting before now are skipped, and
// duplicate (start, end) pairs are dropped.
func TileSlots(free []Window, duration time.Duration, now time.Time) []Window {
	if duration <= 0 {
		return nil
	}

	seen := make(map[slotKey]struct{})
	var slots []Window
	for _, w := range free {
		for t := w.Start; !t.Add(duration).After(w.End); t = t.Add(duration) {
			if t.Before(now) {
				continue
			}
			key := slotKey{start: t.UnixNano(), end: t.Add(duration).UnixNano()}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			slots = append(slots, Window{Start: t, End: t.Add(duration)})
		}
	}
	return slots
}
