package engine

import (
	"fmt"
	"time"

	"github.com/routinely/routinely-server/internal/model"
)

// Defaults applied to a SuggestionRequest before validation.
const (
	DefaultPriority      = 3
	DefaultLookAheadDays = 14
)

// Snapshot is the per-invocation view of one user's data. The engine never
// fetches anything itself: callers assemble the snapshot (declared windows,
// sessions covering both recent history and the horizon, the current
// instant, and the user's location) and hand it over. The snapshot must not
// be mutated while Suggest runs.
type Snapshot struct {
	Windows  []model.AvailabilityWindow
	Sessions []model.Session
	Now      time.Time
	Location *time.Location
}

// Suggest computes one page of ranked candidate slots for the request.
//
// Pipeline: expand weekly windows over the horizon, subtract non-deleted
// sessions, tile the free intervals into duration-exact slots, score each
// slot, then sort and slice the page. A user with no availability, or none
// left after pruning, gets an empty page with Total zero; that is not an
// error. All returned instants are UTC.
func Suggest(req model.SuggestionRequest, snap Snapshot) (model.SuggestionPage, error) {
	req = withDefaults(req)
	if err := validate(req, snap); err != nil {
		return model.SuggestionPage{}, err
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	avail := ResolveAvailability(snap.Windows, snap.Now, req.LookAheadDays, snap.Location)
	free := PruneAvailability(avail, snap.Sessions)
	slots := TileSlots(free, duration, snap.Now)

	scorer := NewScorer(req, snap.Sessions, snap.Now, snap.Location)
	suggestions := make([]model.Suggestion, 0, len(slots))
	for _, slot := range slots {
		score, reasons := scorer.Score(slot)
		desc := fmt.Sprintf("Suggested %s block on %s", typeNoun(req.Type),
			slot.Start.In(snap.Location).Format("Mon Jan 2 at 15:04"))
		suggestions = append(suggestions, model.Suggestion{
			SuggestionID: SuggestionID(req.Type, slot.Start, slot.End),
			Title:        req.Type.Title(),
			Type:         req.Type,
			StartTime:    slot.Start.UTC(),
			EndTime:      slot.End.UTC(),
			Priority:     req.Priority,
			Description:  &desc,
			Score:        score,
			Reasons:      reasons,
		})
	}
	return Paginate(suggestions, req.Offset, req.Limit), nil
}

func withDefaults(req model.SuggestionRequest) model.SuggestionRequest {
	if req.Priority == 0 {
		req.Priority = DefaultPriority
	}
	if req.LookAheadDays == 0 {
		req.LookAheadDays = DefaultLookAheadDays
	}
	return req
}

func validate(req model.SuggestionRequest, snap Snapshot) error {
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown activity type %q", model.ErrValidation, string(req.Type))
	}
	if req.DurationMinutes <= 0 {
		return fmt.Errorf("%w: durationMinutes must be positive", model.ErrValidation)
	}
	if req.LookAheadDays <= 0 {
		return fmt.Errorf("%w: lookAheadDays must be positive", model.ErrValidation)
	}
	if req.Priority < 1 || req.Priority > 5 {
		return fmt.Errorf("%w: priority must be between 1 and 5", model.ErrValidation)
	}
	if req.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", model.ErrValidation)
	}
	if req.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", model.ErrValidation)
	}
	if snap.Location == nil {
		return fmt.Errorf("%w: timezone is required", model.ErrValidation)
	}
	return nil
}
