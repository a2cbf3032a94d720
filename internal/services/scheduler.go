package services

import (
	"context"
	"fmt"
	"time"

	"github.com/routinely/routinely-server/internal/clock"
	"github.com/routinely/routinely-server/internal/engine"
	"github.com/routinely/routinely-server/internal/model"
	"github.com/routinely/routinely-server/internal/store"
)

// SchedulerOptions bounds the per-request suggestion workload. Zero fields
// take the same defaults internal/config documents for its env knobs.
type SchedulerOptions struct {
	DefaultLookAheadDays int
	MaxLookAheadDays     int
	HistoryDays          int
	DefaultPageSize      int
	MaxPageSize          int
}

func (o SchedulerOptions) withDefaults() SchedulerOptions {
	if o.DefaultLookAheadDays <= 0 {
		o.DefaultLookAheadDays = engine.DefaultLookAheadDays
	}
	if o.MaxLookAheadDays <= 0 {
		o.MaxLookAheadDays = 90
	}
	if o.HistoryDays <= 0 {
		o.HistoryDays = 28
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 20
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
	return o
}

// SessionPatch carries the mutable session fields for an update. Nil fields
// keep the stored value.
type SessionPatch struct {
	Title       *string
	StartTime   *time.Time
	EndTime     *time.Time
	Priority    *int
	Description *string
}

// SchedulerService orchestrates suggestion and session use cases. It
// assembles per-request snapshots for the engine and delegates conflict
// gating to the store, which runs the overlap probe and the write in one
// transaction.
type SchedulerService struct {
	store store.Store
	clock clock.Clock
	opts  SchedulerOptions
}

// NewSchedulerService wires the service. A nil clk falls back to the
// system clock.
func NewSchedulerService(s store.Store, clk clock.Clock, opts SchedulerOptions) *SchedulerService {
	if clk == nil {
		clk = clock.System{}
	}
	return &SchedulerService{store: s, clock: clk, opts: opts.withDefaults()}
}

// Suggest computes one page of ranked candidate slots for the user. It
// loads the user's timezone, fetches windows plus sessions covering recent
// history and the look-ahead horizon, and hands the snapshot to the engine.
// A request above MaxLookAheadDays is rejected; a page size above
// MaxPageSize is clamped.
func (s *SchedulerService) Suggest(ctx context.Context, userID string, req model.SuggestionRequest) (model.SuggestionPage, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return model.SuggestionPage{}, wrapStore(err)
	}
	loc, err := time.LoadLocation(user.TimeZone)
	if err != nil {
		return model.SuggestionPage{}, fmt.Errorf("%w: unknown time zone %q", model.ErrValidation, user.TimeZone)
	}

	if req.LookAheadDays == 0 {
		req.LookAheadDays = s.opts.DefaultLookAheadDays
	}
	if req.LookAheadDays > s.opts.MaxLookAheadDays {
		return model.SuggestionPage{}, fmt.Errorf("%w: lookAheadDays must not exceed %d", model.ErrValidation, s.opts.MaxLookAheadDays)
	}
	if req.Limit == 0 {
		req.Limit = s.opts.DefaultPageSize
	}
	if req.Limit > s.opts.MaxPageSize {
		req.Limit = s.opts.MaxPageSize
	}

	now := s.clock.Now().UTC()
	windows, err := s.store.Windows().List(ctx, userID)
	if err != nil {
		return model.SuggestionPage{}, wrapStore(err)
	}
	// History feeds the scorer's pattern and spacing heuristics; the tail
	// day of slack past the horizon keeps every prunable overlap in range.
	sessions, err := s.store.Sessions().List(ctx, model.ListSessionsRequest{
		UserID: userID,
		From:   now.Add(-time.Duration(s.opts.HistoryDays) * 24 * time.Hour),
		To:     now.AddDate(0, 0, req.LookAheadDays+1),
	})
	if err != nil {
		return model.SuggestionPage{}, wrapStore(err)
	}

	snap := engine.Snapshot{
		Windows:  make([]model.AvailabilityWindow, 0, len(windows)),
		Sessions: make([]model.Session, 0, len(sessions)),
		Now:      now,
		Location: loc,
	}
	for _, w := range windows {
		snap.Windows = append(snap.Windows, *w)
	}
	for _, sess := range sessions {
		snap.Sessions = append(snap.Sessions, *sess)
	}
	return engine.Suggest(req, snap)
}

// CheckConflicts reports the live sessions overlapping [start, end) without
// writing anything.
func (s *SchedulerService) CheckConflicts(ctx context.Context, userID string, start, end time.Time) ([]model.Session, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: startTime and endTime are required", model.ErrValidation)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: endTime must be after startTime", model.ErrValidation)
	}
	if _, err := s.store.Users().Get(ctx, userID); err != nil {
		return nil, wrapStore(err)
	}
	rows, err := s.store.Sessions().List(ctx, model.ListSessionsRequest{UserID: userID, From: start, To: end})
	if err != nil {
		return nil, wrapStore(err)
	}
	sessions := make([]model.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, *r)
	}
	return engine.FindConflicts(engine.Window{Start: start, End: end}, sessions), nil
}

// CreateSession persists a new session for an existing user. Priority 0
// takes the engine default and an empty title is derived from the type.
// New sessions always start incomplete and live; completion is a separate
// operation. Overlaps surface as *model.ConflictError unless allowConflicts
// is set.
func (s *SchedulerService) CreateSession(ctx context.Context, sess *model.Session, allowConflicts bool) (*model.Session, error) {
	if _, err := s.store.Users().Get(ctx, sess.UserID); err != nil {
		return nil, wrapStore(err)
	}
	in := *sess
	if in.Priority == 0 {
		in.Priority = engine.DefaultPriority
	}
	if in.Title == "" {
		in.Title = in.Type.Title()
	}
	if err := validateSessionFields(&in); err != nil {
		return nil, err
	}
	in.StartTime = in.StartTime.UTC()
	in.EndTime = in.EndTime.UTC()
	in.Completed = false
	in.CompletedAt = nil
	in.DeletedAt = nil

	created, err := s.store.Sessions().Create(ctx, &in, allowConflicts)
	if err != nil {
		return nil, wrapStore(err)
	}
	return created, nil
}

// GetSession fetches a live session. Soft-deleted sessions read as not
// found; they remain visible only through ListSessions with IncludeDeleted.
func (s *SchedulerService) GetSession(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	sess, err := s.store.Sessions().Get(ctx, userID, sessionID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if sess.Deleted() {
		return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
	}
	return sess, nil
}

// ListSessions returns the user's sessions ordered by start time. A
// non-zero From/To pair restricts the result to sessions overlapping
// [From, To).
func (s *SchedulerService) ListSessions(ctx context.Context, req model.ListSessionsRequest) ([]*model.Session, error) {
	if !req.From.IsZero() && !req.To.IsZero() && !req.To.After(req.From) {
		return nil, fmt.Errorf("%w: to must be after from", model.ErrValidation)
	}
	if _, err := s.store.Users().Get(ctx, req.UserID); err != nil {
		return nil, wrapStore(err)
	}
	rows, err := s.store.Sessions().List(ctx, req)
	if err != nil {
		return nil, wrapStore(err)
	}
	return rows, nil
}

// UpdateSession applies the patch on top of the stored session and writes
// the result through the store's conflict gate.
func (s *SchedulerService) UpdateSession(ctx context.Context, userID, sessionID string, patch SessionPatch, allowConflicts bool) (*model.Session, error) {
	cur, err := s.store.Sessions().Get(ctx, userID, sessionID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if cur.Deleted() {
		return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
	}

	next := *cur
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.StartTime != nil {
		next.StartTime = patch.StartTime.UTC()
	}
	if patch.EndTime != nil {
		next.EndTime = patch.EndTime.UTC()
	}
	if patch.Priority != nil {
		next.Priority = *patch.Priority
	}
	if patch.Description != nil {
		next.Description = patch.Description
	}
	if next.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", model.ErrValidation)
	}
	if err := validateSessionFields(&next); err != nil {
		return nil, err
	}

	updated, err := s.store.Sessions().Update(ctx, &next, allowConflicts)
	if err != nil {
		return nil, wrapStore(err)
	}
	return updated, nil
}

// ToggleComplete sets or clears the completion mark. A nil completed flips
// the current state. Completion is stamped with the service clock and is
// rejected before the session starts.
func (s *SchedulerService) ToggleComplete(ctx context.Context, userID, sessionID string, completed *bool) (*model.Session, error) {
	cur, err := s.store.Sessions().Get(ctx, userID, sessionID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if cur.Deleted() {
		return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
	}

	next := !cur.Completed
	if completed != nil {
		next = *completed
	}
	now := s.clock.Now().UTC()
	if next && now.Before(cur.StartTime) {
		return nil, fmt.Errorf("%w: session cannot be completed before it starts", model.ErrValidation)
	}
	updated, err := s.store.Sessions().SetCompleted(ctx, userID, sessionID, next, now)
	if err != nil {
		return nil, wrapStore(err)
	}
	return updated, nil
}

// DeleteSession soft deletes the session; the row drops out of reads,
// conflicts, and availability but stays listable with IncludeDeleted.
func (s *SchedulerService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return wrapStore(s.store.Sessions().SoftDelete(ctx, userID, sessionID, s.clock.Now().UTC()))
}

func validateSessionFields(m *model.Session) error {
	if !m.Type.Valid() {
		return fmt.Errorf("%w: unknown activity type %q", model.ErrValidation, string(m.Type))
	}
	if m.StartTime.IsZero() || m.EndTime.IsZero() {
		return fmt.Errorf("%w: startTime and endTime are required", model.ErrValidation)
	}
	if !m.EndTime.After(m.StartTime) {
		return fmt.Errorf("%w: endTime must be after startTime", model.ErrValidation)
	}
	if m.Priority < 1 || m.Priority > 5 {
		return fmt.Errorf("%w: priority must be between 1 and 5", model.ErrValidation)
	}
	return nil
}
