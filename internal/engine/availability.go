package engine

import (
	"time"

	"github.com/routinely/routinely-server/internal/model"
)

// ResolveAvailability expands recurring weekly windows into concrete UTC
// intervals over the horizon [today, today+lookAheadDays), where today is
// the calendar date of now in the user's location. Each window is
// instantiated as a wall-clock time on its weekday and converted to UTC, so
// DST transitions never shift a window to the wrong day. Windows on the same
// day that overlap or touch are merged. Days without windows contribute
// nothing.
func ResolveAvailability(windows []model.AvailabilityWindow, now time.Time, lookAheadDays int, loc *time.Location) []Window {
	if len(windows) == 0 || lookAheadDays <= 0 || loc == nil {
		return nil
	}

	byDay := make(map[model.Weekday][]model.AvailabilityWindow, len(windows))
	for _, w := range windows {
		byDay[w.DayOfWeek] = append(byDay[w.DayOfWeek], w)
	}

	y, m, d := now.In(loc).Date()
	dayZero := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var concrete []Window
	for i := 0; i < lookAheadDays; i++ {
		date := dayZero.AddDate(0, 0, i)
		for _, w := range byDay[model.WeekdayOf(date.Weekday())] {
			start := onDate(date, w.StartTime, loc)
			end := onDate(date, w.EndTime, loc)
			// A window swallowed by a spring-forward gap collapses to
			// nothing; skip it rather than emit an empty interval.
			if !end.After(start) {
				continue
			}
			concrete = append(concrete, Window{Start: start.UTC(), End: end.UTC()})
		}
	}
	return Merge(concrete)
}

// onDate places a wall-clock time on the given calendar date in loc.
func onDate(date time.Time, t model.LocalTime, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, loc)
}
