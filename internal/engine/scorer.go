package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/routinely/routinely-server/internal/model"
)

// Scoring weights. Each heuristic is clamped to its own sub-range before the
// total is clamped to [0, 100]. Integer arithmetic keeps repeated runs
// byte-identical.
const (
	baseScore = 50

	patternFirstMatch    = 13
	patternPerExtra      = 4
	patternMax           = 25
	patternToleranceMins = 90

	spacingBonus   = 10
	spacingGapMins = 120

	urgencyPerPriority = 8
	urgencyMax         = 15

	daypartBonus      = 10
	daypartMinHistory = 3
)

// daypart buckets a local hour into a coarse part of the day.
type daypart int

const (
	night daypart = iota
	morning
	afternoon
	evening
)

func (d daypart) String() string {
	switch d {
	case morning:
		return "morning"
	case afternoon:
		return "afternoon"
	case evening:
		return "evening"
	}
	return "night"
}

func daypartOf(hour int) daypart {
	switch {
	case hour >= 5 && hour < 12:
		return morning
	case hour >= 12 && hour < 17:
		return afternoon
	case hour >= 17 && hour < 22:
		return evening
	}
	return night
}

// Scorer ranks candidate slots for one request against the user's sessions.
// Pattern heuristics consult only sessions that started before now; spacing
// also looks at upcoming ones.
type Scorer struct {
	req         model.SuggestionRequest
	loc         *time.Location
	dayZero     time.Time
	horizonDays int
	sameType    []model.Session
	history     []model.Session
}

// NewScorer prepares a scorer from the user's non-deleted sessions.
func NewScorer(req model.SuggestionRequest, sessions []model.Session, now time.Time, loc *time.Location) *Scorer {
	sc := &Scorer{req: req, loc: loc, horizonDays: req.LookAheadDays}
	y, m, d := now.In(loc).Date()
	sc.dayZero = time.Date(y, m, d, 0, 0, 0, 0, loc)
	for _, s := range sessions {
		if s.Deleted() || s.Type != req.Type {
			continue
		}
		sc.sameType = append(sc.sameType, s)
		if s.StartTime.Before(now) {
			sc.history = append(sc.history, s)
		}
	}
	return sc
}

// Score returns the slot's desirability in [0, 100] plus one reason string
// per heuristic that fired. Heuristics that do not fire contribute neither
// points nor a reason.
func (sc *Scorer) Score(slot Window) (int, []string) {
	score := baseScore
	reasons := make([]string, 0, 4)

	if pts := sc.patternScore(slot); pts > 0 {
		score += pts
		local := slot.Start.In(sc.loc)
		reasons = append(reasons, fmt.Sprintf("Matches your usual %s %s routine",
			local.Weekday(), daypartOf(local.Hour())))
	}
	if pts := sc.spacingScore(slot); pts > 0 {
		score += pts
		reasons = append(reasons, fmt.Sprintf("Well spaced from other %s sessions",
			typeNoun(sc.req.Type)))
	}
	if pts := sc.urgencyScore(slot); pts > 0 {
		score += pts
		reasons = append(reasons, "Scheduled early for a high-priority request")
	}
	if pts, dominant := sc.daypartScore(slot); pts > 0 {
		score += pts
		reasons = append(reasons, fmt.Sprintf("You usually do %s in the %s",
			typeNoun(sc.req.Type), dominant))
	}

	return clampScore(score), reasons
}

// patternScore counts historical same-type sessions on the slot's weekday
// whose start lies within the time-of-day tolerance.
func (sc *Scorer) patternScore(slot Window) int {
	wd := slot.Start.In(sc.loc).Weekday()
	slotMins := minuteOfDay(slot.Start, sc.loc)

	matches := 0
	for _, s := range sc.history {
		if s.StartTime.In(sc.loc).Weekday() != wd {
			continue
		}
		if circularMinuteGap(minuteOfDay(s.StartTime, sc.loc), slotMins) <= patternToleranceMins {
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	pts := patternFirstMatch + patternPerExtra*(matches-1)
	if pts > patternMax {
		pts = patternMax
	}
	return pts
}

// spacingScore fires when no same-type session sits within the spacing gap
// on either side of the slot.
func (sc *Scorer) spacingScore(slot Window) int {
	padded := Window{
		Start: slot.Start.Add(-spacingGapMins * time.Minute),
		End:   slot.End.Add(spacingGapMins * time.Minute),
	}
	for _, s := range sc.sameType {
		if Overlaps(padded, Window{Start: s.StartTime, End: s.EndTime}) {
			return 0
		}
	}
	return spacingBonus
}

// urgencyScore rewards high-priority requests placed early in the horizon,
// decaying linearly toward its end.
func (sc *Scorer) urgencyScore(slot Window) int {
	if sc.req.Priority < 4 || sc.horizonDays <= 0 {
		return 0
	}
	offset := daysBetween(sc.dayZero, slot.Start.In(sc.loc))
	if offset < 0 {
		offset = 0
	}
	if offset >= sc.horizonDays {
		return 0
	}
	pts := urgencyPerPriority * (sc.req.Priority - 3) * (sc.horizonDays - offset) / sc.horizonDays
	if pts > urgencyMax {
		pts = urgencyMax
	}
	return pts
}

// daypartScore fires when the slot lands inside the dominant daypart of the
// user's history for the requested type. Dominance needs at least
// daypartMinHistory sessions and a strict majority among them.
func (sc *Scorer) daypartScore(slot Window) (int, daypart) {
	if len(sc.history) < daypartMinHistory {
		return 0, night
	}

	counts := make(map[daypart]int, 4)
	for _, s := range sc.history {
		counts[daypartOf(s.StartTime.In(sc.loc).Hour())]++
	}
	dominant, best := night, 0
	for dp, c := range counts {
		if c > best || (c == best && dp < dominant) {
			dominant, best = dp, c
		}
	}
	if best*2 <= len(sc.history) {
		return 0, night
	}
	if daypartOf(slot.Start.In(sc.loc).Hour()) != dominant {
		return 0, night
	}
	return daypartBonus, dominant
}

func typeNoun(t model.ActivityType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

func minuteOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// circularMinuteGap measures the shortest distance between two times of day,
// wrapping around midnight.
func circularMinuteGap(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > model.MinutesPerDay/2 {
		d = model.MinutesPerDay - d
	}
	return d
}

// daysBetween counts calendar days from the day of a to the day of b.
func daysBetween(a, b time.Time) int {
	y0, m0, d0 := a.Date()
	y1, m1, d1 := b.Date()
	start := time.Date(y0, m0, d0, 0, 0, 0, 0, time.UTC)
	end := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / (24 * time.Hour))
}

// clampScore keeps the total within [0, 100].
func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
