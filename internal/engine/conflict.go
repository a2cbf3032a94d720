package engine

import (
	"sort"

	"github.com/routinely/routinely-server/internal/model"
)

// FindConflicts returns every non-deleted session whose interval overlaps
// the candidate, ordered by start time. Soft-deleted sessions never count.
func FindConflicts(candidate Window, sessions []model.Session) []model.Session {
	var conflicts []model.Session
	for _, s := range sessions {
		if s.Deleted() {
			continue
		}
		if Overlaps(candidate, Window{Start: s.StartTime, End: s.EndTime}) {
			conflicts = append(conflicts, s)
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].StartTime.Before(conflicts[j].StartTime)
	})
	return conflicts
}

// PruneAvailability subtracts every non-deleted session interval from each
// availability window and returns only the genuinely free sub-intervals.
func PruneAvailability(intervals []Window, sessions []model.Session) []Window {
	busy := make([]Window, 0, len(sessions))
	for _, s := range sessions {
		if s.Deleted() {
			continue
		}
		busy = append(busy, Window{Start: s.StartTime, End: s.EndTime})
	}

	var free []Window
	for _, w := range intervals {
		for _, f := range Subtract(w, busy) {
			if f.End.After(f.Start) {
				free = append(free, f)
			}
		}
	}
	return free
}
