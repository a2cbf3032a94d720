package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/routinely/routinely-server/internal/model"
	"github.com/routinely/routinely-server/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
// Every driver must pass the same conflict-gating and invariant checks so
// services behave identically on top of either.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	email := userID + "@example.test"

	// Users
	u, err := s.Users().Create(ctx, &model.User{UserID: userID, Email: email, TimeZone: "America/New_York"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.CreationTime.IsZero() {
		t.Fatalf("CreateUser: zero creation time")
	}
	if got, err := s.Users().Get(ctx, userID); err != nil || got.TimeZone != "America/New_York" {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Get(ctx, "no-such-user"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetUser missing: want ErrNotFound, got %v", err)
	}

	// Windows: created out of calendar order, listed in calendar order.
	wed, err := s.Windows().Create(ctx, &model.AvailabilityWindow{
		UserID: userID, DayOfWeek: model.Wednesday, StartTime: mustLocal(t, "18:00"), EndTime: mustLocal(t, "20:00"),
	})
	if err != nil {
		t.Fatalf("CreateWindow wed: %v", err)
	}
	mon, err := s.Windows().Create(ctx, &model.AvailabilityWindow{
		UserID: userID, DayOfWeek: model.Monday, StartTime: mustLocal(t, "07:00"), EndTime: mustLocal(t, "09:00"),
	})
	if err != nil {
		t.Fatalf("CreateWindow mon: %v", err)
	}
	if mon.WindowID == "" || mon.WindowID == wed.WindowID {
		t.Fatalf("CreateWindow: bad window id %q", mon.WindowID)
	}
	ws, err := s.Windows().List(ctx, userID)
	if err != nil || len(ws) != 2 {
		t.Fatalf("ListWindows: n=%d err=%v", len(ws), err)
	}
	if ws[0].DayOfWeek != model.Monday || ws[1].DayOfWeek != model.Wednesday {
		t.Fatalf("ListWindows order: got %s, %s", ws[0].DayOfWeek, ws[1].DayOfWeek)
	}
	if ws[0].StartTime != mustLocal(t, "07:00") || ws[0].EndTime != mustLocal(t, "09:00") {
		t.Fatalf("ListWindows round trip: got %s-%s", ws[0].StartTime, ws[0].EndTime)
	}
	if err := s.Windows().Delete(ctx, userID, wed.WindowID); err != nil {
		t.Fatalf("DeleteWindow: %v", err)
	}
	if err := s.Windows().Delete(ctx, userID, wed.WindowID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteWindow twice: want ErrNotFound, got %v", err)
	}

	// Sessions
	base := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC) // a Monday
	first, err := s.Sessions().Create(ctx, newSession(userID, base, base.Add(time.Hour)), false)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if first.SessionID == "" || first.CreationTime.IsZero() || first.UpdateTime.IsZero() {
		t.Fatalf("CreateSession: incomplete row %+v", first)
	}

	// Overlap is rejected and reports the blocking session.
	_, err = s.Sessions().Create(ctx, newSession(userID, base.Add(30*time.Minute), base.Add(90*time.Minute)), false)
	var ce *model.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("CreateSession overlap: want ConflictError, got %v", err)
	}
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("CreateSession overlap: ConflictError must unwrap to ErrConflict")
	}
	if len(ce.Conflicts) != 1 || ce.Conflicts[0].SessionID != first.SessionID {
		t.Fatalf("CreateSession overlap: conflicts=%+v", ce.Conflicts)
	}

	// allowConflicts forces the write through.
	_, err = s.Sessions().Create(ctx, newSession(userID, base.Add(30*time.Minute), base.Add(90*time.Minute)), true)
	if err != nil {
		t.Fatalf("CreateSession allowConflicts: %v", err)
	}

	// Back-to-back sessions are not conflicts.
	touching, err := s.Sessions().Create(ctx, newSession(userID, base.Add(90*time.Minute), base.Add(2*time.Hour)), false)
	if err != nil {
		t.Fatalf("CreateSession touching: %v", err)
	}

	if got, err := s.Sessions().Get(ctx, userID, first.SessionID); err != nil || !got.StartTime.Equal(base) {
		t.Fatalf("GetSession: got=%+v err=%v", got, err)
	}
	if _, err := s.Sessions().Get(ctx, userID, "no-such-session"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetSession missing: want ErrNotFound, got %v", err)
	}

	// Range list returns sessions overlapping [From, To) in start order.
	lst, err := s.Sessions().List(ctx, model.ListSessionsRequest{
		UserID: userID, From: base.Add(45 * time.Minute), To: base.Add(95 * time.Minute),
	})
	if err != nil || len(lst) != 3 {
		t.Fatalf("ListSessions range: n=%d err=%v", len(lst), err)
	}
	if lst[0].SessionID != first.SessionID {
		t.Fatalf("ListSessions order: first=%s", lst[0].SessionID)
	}
	lst, err = s.Sessions().List(ctx, model.ListSessionsRequest{
		UserID: userID, From: base.Add(2 * time.Hour), To: base.Add(3 * time.Hour),
	})
	if err != nil || len(lst) != 0 {
		t.Fatalf("ListSessions outside range: n=%d err=%v", len(lst), err)
	}

	// Update moves a session; the write is conflict-gated against others
	// but never against the session itself.
	moved := *touching
	moved.StartTime = base.Add(5 * time.Hour)
	moved.EndTime = base.Add(6 * time.Hour)
	moved.Title = "Moved block"
	moved.Priority = 5
	upd, err := s.Sessions().Update(ctx, &moved, false)
	if err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	if upd.Title != "Moved block" || upd.Priority != 5 || !upd.StartTime.Equal(base.Add(5*time.Hour)) {
		t.Fatalf("UpdateSession round trip: %+v", upd)
	}
	same := *upd
	if _, err := s.Sessions().Update(ctx, &same, false); err != nil {
		t.Fatalf("UpdateSession self-overlap: %v", err)
	}
	back := *upd
	back.StartTime = first.StartTime
	back.EndTime = first.EndTime
	if _, err := s.Sessions().Update(ctx, &back, false); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("UpdateSession onto occupied slot: want conflict, got %v", err)
	}
	if _, err := s.Sessions().Update(ctx, &back, true); err != nil {
		t.Fatalf("UpdateSession allowConflicts: %v", err)
	}

	// Completion toggling pairs completed with completedAt.
	doneAt := base.Add(time.Hour)
	done, err := s.Sessions().SetCompleted(ctx, userID, first.SessionID, true, doneAt)
	if err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	if !done.Completed || done.CompletedAt == nil || !done.CompletedAt.Equal(doneAt) {
		t.Fatalf("SetCompleted: %+v", done)
	}
	undone, err := s.Sessions().SetCompleted(ctx, userID, first.SessionID, false, doneAt)
	if err != nil {
		t.Fatalf("SetCompleted undo: %v", err)
	}
	if undone.Completed || undone.CompletedAt != nil {
		t.Fatalf("SetCompleted undo: %+v", undone)
	}

	// Soft delete keeps the row readable, frees the slot for new sessions
	// and blocks further mutation.
	scratch, err := s.Sessions().Create(ctx, newSession(userID, base.Add(6*time.Hour), base.Add(7*time.Hour)), false)
	if err != nil {
		t.Fatalf("CreateSession scratch: %v", err)
	}
	delAt := base.Add(2 * time.Hour)
	if err := s.Sessions().SoftDelete(ctx, userID, scratch.SessionID, delAt); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := s.Sessions().SoftDelete(ctx, userID, scratch.SessionID, delAt); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("SoftDelete twice: want ErrNotFound, got %v", err)
	}
	gone, err := s.Sessions().Get(ctx, userID, scratch.SessionID)
	if err != nil || gone.DeletedAt == nil {
		t.Fatalf("GetSession after delete: got=%+v err=%v", gone, err)
	}
	if _, err := s.Sessions().SetCompleted(ctx, userID, scratch.SessionID, true, doneAt); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("SetCompleted deleted: want ErrNotFound, got %v", err)
	}
	if _, err := s.Sessions().Update(ctx, gone, false); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateSession deleted: want ErrNotFound, got %v", err)
	}
	live, err := s.Sessions().List(ctx, model.ListSessionsRequest{UserID: userID})
	if err != nil {
		t.Fatalf("ListSessions live: %v", err)
	}
	for _, m := range live {
		if m.SessionID == scratch.SessionID {
			t.Fatalf("ListSessions live: deleted session %s present", scratch.SessionID)
		}
	}
	all, err := s.Sessions().List(ctx, model.ListSessionsRequest{UserID: userID, IncludeDeleted: true})
	if err != nil || len(all) != len(live)+1 {
		t.Fatalf("ListSessions all: n=%d live=%d err=%v", len(all), len(live), err)
	}
	if _, err := s.Sessions().Create(ctx, newSession(userID, scratch.StartTime, scratch.EndTime), false); err != nil {
		t.Fatalf("CreateSession over deleted slot: %v", err)
	}

	// Invariants hold at the storage boundary regardless of the caller.
	for name, bad := range map[string]*model.Session{
		"end before start": {UserID: userID, Title: "t", Type: model.ActivityWorkout, StartTime: base.Add(10 * time.Hour), EndTime: base.Add(9 * time.Hour), Priority: 3},
		"zero duration":    {UserID: userID, Title: "t", Type: model.ActivityWorkout, StartTime: base.Add(10 * time.Hour), EndTime: base.Add(10 * time.Hour), Priority: 3},
		"priority too low": {UserID: userID, Title: "t", Type: model.ActivityWorkout, StartTime: base.Add(10 * time.Hour), EndTime: base.Add(11 * time.Hour), Priority: 0},
		"unknown type":     {UserID: userID, Title: "t", Type: "nap", StartTime: base.Add(10 * time.Hour), EndTime: base.Add(11 * time.Hour), Priority: 3},
		"completed without timestamp": {UserID: userID, Title: "t", Type: model.ActivityWorkout,
			StartTime: base.Add(10 * time.Hour), EndTime: base.Add(11 * time.Hour), Priority: 3, Completed: true},
	} {
		if _, err := s.Sessions().Create(ctx, bad, false); err == nil {
			t.Fatalf("CreateSession %s: want constraint violation", name)
		}
	}

	// Deleting the user removes windows and sessions with it.
	if err := s.Users().Delete(ctx, userID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if ws, err := s.Windows().List(ctx, userID); err != nil || len(ws) != 0 {
		t.Fatalf("ListWindows after user delete: n=%d err=%v", len(ws), err)
	}
	if lst, err := s.Sessions().List(ctx, model.ListSessionsRequest{UserID: userID, IncludeDeleted: true}); err != nil || len(lst) != 0 {
		t.Fatalf("ListSessions after user delete: n=%d err=%v", len(lst), err)
	}
}

func newSession(userID string, start, end time.Time) *model.Session {
	return &model.Session{
		UserID:    userID,
		Title:     "Workout",
		Type:      model.ActivityWorkout,
		StartTime: start,
		EndTime:   end,
		Priority:  3,
	}
}

func mustLocal(t *testing.T, s string) model.LocalTime {
	t.Helper()
	lt, err := model.ParseLocalTime(s)
	if err != nil {
		t.Fatalf("parse local time %q: %v", s, err)
	}
	return lt
}
