package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/routinely/routinely-server/internal/clock"
	"github.com/routinely/routinely-server/internal/model"
	"github.com/routinely/routinely-server/internal/store"
)

// --- Fakes ---

var fakeStamp = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	users    map[string]*model.User
	windows  map[string][]*model.AvailabilityWindow
	sessions []*model.Session

	nextID      int
	listReqs    []model.ListSessionsRequest
	createFlags []bool
	windowsErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[string]*model.User{},
		windows: map[string][]*model.AvailabilityWindow{},
	}
}

func (f *fakeStore) Users() store.Users       { return &fakeUsers{f} }
func (f *fakeStore) Windows() store.Windows   { return &fakeWindows{f} }
func (f *fakeStore) Sessions() store.Sessions { return &fakeSessions{f} }

func (f *fakeStore) addUser(id, tz string) {
	f.users[id] = &model.User{UserID: id, Email: id + "@example.com", TimeZone: tz, CreationTime: fakeStamp}
}

func (f *fakeStore) addWindow(userID string, day model.Weekday, start, end model.LocalTime) {
	f.nextID++
	f.windows[userID] = append(f.windows[userID], &model.AvailabilityWindow{
		WindowID:  fmt.Sprintf("w%d", f.nextID),
		UserID:    userID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
	})
}

func (f *fakeStore) addSession(userID string, start, end time.Time) *model.Session {
	f.nextID++
	s := &model.Session{
		SessionID: fmt.Sprintf("s%d", f.nextID),
		UserID:    userID,
		Title:     "Existing block",
		Type:      model.ActivityDeepWork,
		StartTime: start,
		EndTime:   end,
		Priority:  3,
	}
	f.sessions = append(f.sessions, s)
	return s
}

type fakeUsers struct{ p *fakeStore }

func (u *fakeUsers) Create(_ context.Context, m *model.User) (*model.User, error) {
	if m.UserID == "" {
		u.p.nextID++
		m.UserID = fmt.Sprintf("u%d", u.p.nextID)
	}
	m.CreationTime = fakeStamp
	u.p.users[m.UserID] = m
	return m, nil
}

func (u *fakeUsers) Get(_ context.Context, userID string) (*model.User, error) {
	if m, ok := u.p.users[userID]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, userID)
}

func (u *fakeUsers) Delete(_ context.Context, userID string) error {
	if _, ok := u.p.users[userID]; !ok {
		return fmt.Errorf("%w: user %s", model.ErrNotFound, userID)
	}
	delete(u.p.users, userID)
	return nil
}

type fakeWindows struct{ p *fakeStore }

func (w *fakeWindows) Create(_ context.Context, m *model.AvailabilityWindow) (*model.AvailabilityWindow, error) {
	if m.WindowID == "" {
		w.p.nextID++
		m.WindowID = fmt.Sprintf("w%d", w.p.nextID)
	}
	m.CreationTime = fakeStamp
	w.p.windows[m.UserID] = append(w.p.windows[m.UserID], m)
	return m, nil
}

func (w *fakeWindows) List(_ context.Context, userID string) ([]*model.AvailabilityWindow, error) {
	if w.p.windowsErr != nil {
		return nil, w.p.windowsErr
	}
	return w.p.windows[userID], nil
}

func (w *fakeWindows) Delete(_ context.Context, userID, windowID string) error {
	ws := w.p.windows[userID]
	for i, win := range ws {
		if win.WindowID == windowID {
			w.p.windows[userID] = append(ws[:i], ws[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: window %s", model.ErrNotFound, windowID)
}

type fakeSessions struct{ p *fakeStore }

func (s *fakeSessions) Create(_ context.Context, m *model.Session, allowConflicts bool) (*model.Session, error) {
	s.p.createFlags = append(s.p.createFlags, allowConflicts)
	if !allowConflicts {
		if conflicts := s.overlapping(m.UserID, m.StartTime, m.EndTime, ""); len(conflicts) > 0 {
			return nil, &model.ConflictError{Conflicts: conflicts}
		}
	}
	cp := *m
	if cp.SessionID == "" {
		s.p.nextID++
		cp.SessionID = fmt.Sprintf("s%d", s.p.nextID)
	}
	cp.CreationTime, cp.UpdateTime = fakeStamp, fakeStamp
	s.p.sessions = append(s.p.sessions, &cp)
	out := cp
	return &out, nil
}

func (s *fakeSessions) Get(_ context.Context, userID, sessionID string) (*model.Session, error) {
	if m := s.find(userID, sessionID); m != nil {
		cp := *m
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
}

func (s *fakeSessions) List(_ context.Context, req model.ListSessionsRequest) ([]*model.Session, error) {
	s.p.listReqs = append(s.p.listReqs, req)
	var out []*model.Session
	for _, m := range s.p.sessions {
		if m.UserID != req.UserID {
			continue
		}
		if m.Deleted() && !req.IncludeDeleted {
			continue
		}
		if !req.From.IsZero() && !m.EndTime.After(req.From) {
			continue
		}
		if !req.To.IsZero() && !m.StartTime.Before(req.To) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *fakeSessions) Update(_ context.Context, m *model.Session, allowConflicts bool) (*model.Session, error) {
	cur := s.find(m.UserID, m.SessionID)
	if cur == nil || cur.Deleted() {
		return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, m.SessionID)
	}
	if !allowConflicts {
		if conflicts := s.overlapping(m.UserID, m.StartTime, m.EndTime, m.SessionID); len(conflicts) > 0 {
			return nil, &model.ConflictError{Conflicts: conflicts}
		}
	}
	cur.Title, cur.Type = m.Title, m.Type
	cur.StartTime, cur.EndTime = m.StartTime, m.EndTime
	cur.Priority, cur.Description = m.Priority, m.Description
	cur.UpdateTime = fakeStamp.Add(time.Hour)
	cp := *cur
	return &cp, nil
}

func (s *fakeSessions) SetCompleted(_ context.Context, userID, sessionID string, completed bool, at time.Time) (*model.Session, error) {
	cur := s.find(userID, sessionID)
	if cur == nil || cur.Deleted() {
		return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
	}
	cur.Completed = completed
	if completed {
		t := at
		cur.CompletedAt = &t
	} else {
		cur.CompletedAt = nil
	}
	cp := *cur
	return &cp, nil
}

func (s *fakeSessions) SoftDelete(_ context.Context, userID, sessionID string, at time.Time) error {
	cur := s.find(userID, sessionID)
	if cur == nil || cur.Deleted() {
		return fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
	}
	t := at
	cur.DeletedAt = &t
	return nil
}

func (s *fakeSessions) find(userID, sessionID string) *model.Session {
	for _, m := range s.p.sessions {
		if m.UserID == userID && m.SessionID == sessionID {
			return m
		}
	}
	return nil
}

func (s *fakeSessions) overlapping(userID string, start, end time.Time, excludeID string) []model.Session {
	var out []model.Session
	for _, m := range s.p.sessions {
		if m.UserID != userID || m.Deleted() || m.SessionID == excludeID {
			continue
		}
		if start.Before(m.EndTime) && m.StartTime.Before(end) {
			out = append(out, *m)
		}
	}
	return out
}

func mustLocalTime(t *testing.T, s string) model.LocalTime {
	t.Helper()
	lt, err := model.ParseLocalTime(s)
	if err != nil {
		t.Fatalf("parse local time %q: %v", s, err)
	}
	return lt
}

// --- Suggest ---

func TestSuggestAssemblesSnapshotAndPages(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	fs.addWindow("u1", model.Monday, mustLocalTime(t, "07:00"), mustLocalTime(t, "09:00"))

	now := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC) // a Monday
	svc := NewSchedulerService(fs, clock.NewFixed(now), SchedulerOptions{})

	page, err := svc.Suggest(context.Background(), "u1", model.SuggestionRequest{
		Type:            model.ActivityWorkout,
		DurationMinutes: 30,
		LookAheadDays:   7,
	})
	if err != nil {
		t.Fatalf("Suggest error: %v", err)
	}
	if page.Total != 4 || len(page.Suggestions) != 4 || page.HasMore {
		t.Fatalf("unexpected page: total=%d len=%d hasMore=%v", page.Total, len(page.Suggestions), page.HasMore)
	}
	first := page.Suggestions[0]
	if want := now.Add(time.Hour); !first.StartTime.Equal(want) {
		t.Fatalf("first slot starts %v, want %v", first.StartTime, want)
	}
	for _, sug := range page.Suggestions {
		if got := sug.EndTime.Sub(sug.StartTime); got != 30*time.Minute {
			t.Fatalf("slot %v duration = %v, want 30m", sug.StartTime, got)
		}
	}

	if len(fs.listReqs) != 1 {
		t.Fatalf("expected one session list call, got %d", len(fs.listReqs))
	}
	req := fs.listReqs[0]
	if want := now.Add(-28 * 24 * time.Hour); !req.From.Equal(want) {
		t.Fatalf("history lower bound = %v, want %v", req.From, want)
	}
	if want := now.AddDate(0, 0, 8); !req.To.Equal(want) {
		t.Fatalf("horizon upper bound = %v, want %v", req.To, want)
	}
}

func TestSuggestAppliesDefaultLookAhead(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")

	now := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)
	svc := NewSchedulerService(fs, clock.NewFixed(now), SchedulerOptions{})

	if _, err := svc.Suggest(context.Background(), "u1", model.SuggestionRequest{
		Type:            model.ActivityReading,
		DurationMinutes: 20,
	}); err != nil {
		t.Fatalf("Suggest error: %v", err)
	}
	if want := now.AddDate(0, 0, 15); !fs.listReqs[0].To.Equal(want) {
		t.Fatalf("default horizon upper bound = %v, want %v", fs.listReqs[0].To, want)
	}
}

func TestSuggestSkipsBookedTime(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	fs.addWindow("u1", model.Monday, mustLocalTime(t, "07:00"), mustLocalTime(t, "09:00"))

	now := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)
	booked := fs.addSession("u1", now.Add(90*time.Minute), now.Add(120*time.Minute)) // 07:30-08:00

	svc := NewSchedulerService(fs, clock.NewFixed(now), SchedulerOptions{})
	page, err := svc.Suggest(context.Background(), "u1", model.SuggestionRequest{
		Type:            model.ActivityWorkout,
		DurationMinutes: 30,
		LookAheadDays:   7,
	})
	if err != nil {
		t.Fatalf("Suggest error: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("total = %d, want 3", page.Total)
	}
	for _, sug := range page.Suggestions {
		if sug.StartTime.Before(booked.EndTime) && booked.StartTime.Before(sug.EndTime) {
			t.Fatalf("slot %v-%v overlaps booked session", sug.StartTime, sug.EndTime)
		}
	}
}

func TestSuggestNoWindowsYieldsEmptyPage(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "America/New_York")

	svc := NewSchedulerService(fs, clock.NewFixed(time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)), SchedulerOptions{})
	page, err := svc.Suggest(context.Background(), "u1", model.SuggestionRequest{
		Type:            model.ActivityMeditation,
		DurationMinutes: 15,
	})
	if err != nil {
		t.Fatalf("Suggest error: %v", err)
	}
	if page.Total != 0 || len(page.Suggestions) != 0 || page.HasMore {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestSuggestRejectsHorizonBeyondMax(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")

	svc := NewSchedulerService(fs, clock.NewFixed(fakeStamp), SchedulerOptions{MaxLookAheadDays: 30})
	_, err := svc.Suggest(context.Background(), "u1", model.SuggestionRequest{
		Type:            model.ActivityWorkout,
		DurationMinutes: 30,
		LookAheadDays:   31,
	})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSuggestClampsPageSize(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	fs.addWindow("u1", model.Monday, mustLocalTime(t, "07:00"), mustLocalTime(t, "09:00"))

	now := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)
	svc := NewSchedulerService(fs, clock.NewFixed(now), SchedulerOptions{DefaultPageSize: 2, MaxPageSize: 2})

	page, err := svc.Suggest(context.Background(), "u1", model.SuggestionRequest{
		Type:            model.ActivityWorkout,
		DurationMinutes: 30,
		LookAheadDays:   7,
		Limit:           50,
	})
	if err != nil {
		t.Fatalf("Suggest error: %v", err)
	}
	if len(page.Suggestions) != 2 || page.Total != 4 || !page.HasMore {
		t.Fatalf("unexpected page after clamp: total=%d len=%d hasMore=%v", page.Total, len(page.Suggestions), page.HasMore)
	}
}

func TestSuggestUnknownUser(t *testing.T) {
	svc := NewSchedulerService(newFakeStore(), clock.NewFixed(fakeStamp), SchedulerOptions{})
	_, err := svc.Suggest(context.Background(), "ghost", model.SuggestionRequest{
		Type:            model.ActivityWorkout,
		DurationMinutes: 30,
	})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSuggestWrapsStoreFailure(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	fs.windowsErr = errors.New("connection refused")

	svc := NewSchedulerService(fs, clock.NewFixed(fakeStamp), SchedulerOptions{})
	_, err := svc.Suggest(context.Background(), "u1", model.SuggestionRequest{
		Type:            model.ActivityWorkout,
		DurationMinutes: 30,
	})
	if !errors.Is(err, model.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

// --- Conflicts ---

func TestCheckConflicts(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	base := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	existing := fs.addSession("u1", base, base.Add(time.Hour))

	svc := NewSchedulerService(fs, clock.NewFixed(base), SchedulerOptions{})

	hits, err := svc.CheckConflicts(context.Background(), "u1", base.Add(30*time.Minute), base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("CheckConflicts error: %v", err)
	}
	if len(hits) != 1 || hits[0].SessionID != existing.SessionID {
		t.Fatalf("expected [%s], got %+v", existing.SessionID, hits)
	}

	hits, err = svc.CheckConflicts(context.Background(), "u1", base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("CheckConflicts error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("touching interval should not conflict, got %+v", hits)
	}

	if _, err := svc.CheckConflicts(context.Background(), "u1", base, base); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for empty interval, got %v", err)
	}
	if _, err := svc.CheckConflicts(context.Background(), "ghost", base, base.Add(time.Hour)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// --- Session CRUD ---

func TestCreateSessionDefaults(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	svc := NewSchedulerService(fs, clock.NewFixed(fakeStamp), SchedulerOptions{})

	done := fakeStamp
	in := &model.Session{
		UserID:      "u1",
		Type:        model.ActivityWorkout,
		StartTime:   fakeStamp.Add(time.Hour),
		EndTime:     fakeStamp.Add(2 * time.Hour),
		Completed:   true,
		CompletedAt: &done,
	}
	created, err := svc.CreateSession(context.Background(), in, false)
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if created.Priority != 3 {
		t.Fatalf("priority = %d, want default 3", created.Priority)
	}
	if created.Title != "Workout" {
		t.Fatalf("title = %q, want derived %q", created.Title, "Workout")
	}
	if created.Completed || created.CompletedAt != nil {
		t.Fatalf("new session must start incomplete, got completed=%v", created.Completed)
	}
	if in.Priority != 0 || in.Title != "" {
		t.Fatalf("input session was mutated: %+v", in)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	svc := NewSchedulerService(fs, clock.NewFixed(fakeStamp), SchedulerOptions{})

	cases := map[string]*model.Session{
		"unknown type": {UserID: "u1", Type: "nap", StartTime: fakeStamp, EndTime: fakeStamp.Add(time.Hour)},
		"end before start": {UserID: "u1", Type: model.ActivityReading,
			StartTime: fakeStamp.Add(time.Hour), EndTime: fakeStamp},
		"zero times":   {UserID: "u1", Type: model.ActivityReading},
		"bad priority": {UserID: "u1", Type: model.ActivityReading, StartTime: fakeStamp, EndTime: fakeStamp.Add(time.Hour), Priority: 6},
	}
	for name, sess := range cases {
		if _, err := svc.CreateSession(context.Background(), sess, false); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	ghost := &model.Session{UserID: "ghost", Type: model.ActivityReading, StartTime: fakeStamp, EndTime: fakeStamp.Add(time.Hour)}
	if _, err := svc.CreateSession(context.Background(), ghost, false); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
}

func TestCreateSessionConflictGate(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	base := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	existing := fs.addSession("u1", base, base.Add(time.Hour))

	svc := NewSchedulerService(fs, clock.NewFixed(base), SchedulerOptions{})
	in := &model.Session{
		UserID:    "u1",
		Type:      model.ActivityWorkout,
		StartTime: base.Add(30 * time.Minute),
		EndTime:   base.Add(90 * time.Minute),
	}

	_, err := svc.CreateSession(context.Background(), in, false)
	var ce *model.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("conflict error should match ErrConflict, got %v", err)
	}
	if len(ce.Conflicts) != 1 || ce.Conflicts[0].SessionID != existing.SessionID {
		t.Fatalf("conflicts = %+v, want [%s]", ce.Conflicts, existing.SessionID)
	}

	if _, err := svc.CreateSession(context.Background(), in, true); err != nil {
		t.Fatalf("forced create error: %v", err)
	}
	if len(fs.createFlags) != 2 || fs.createFlags[0] || !fs.createFlags[1] {
		t.Fatalf("allowConflicts flags = %v, want [false true]", fs.createFlags)
	}
}

func TestUpdateSessionAppliesPatch(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	base := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	sess := fs.addSession("u1", base, base.Add(time.Hour))

	svc := NewSchedulerService(fs, clock.NewFixed(base), SchedulerOptions{})

	title := "Morning focus"
	start := base.Add(3 * time.Hour)
	end := base.Add(4 * time.Hour)
	prio := 5
	desc := "moved after standup"
	updated, err := svc.UpdateSession(context.Background(), "u1", sess.SessionID, SessionPatch{
		Title:       &title,
		StartTime:   &start,
		EndTime:     &end,
		Priority:    &prio,
		Description: &desc,
	}, false)
	if err != nil {
		t.Fatalf("UpdateSession error: %v", err)
	}
	if updated.Title != title || !updated.StartTime.Equal(start) || !updated.EndTime.Equal(end) {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Priority != prio || updated.Description == nil || *updated.Description != desc {
		t.Fatalf("patch not applied: %+v", updated)
	}

	bad := base.Add(-time.Hour)
	if _, err := svc.UpdateSession(context.Background(), "u1", sess.SessionID, SessionPatch{EndTime: &bad}, false); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.UpdateSession(context.Background(), "u1", "missing", SessionPatch{}, false); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	gone := fs.addSession("u1", base.Add(6*time.Hour), base.Add(7*time.Hour))
	when := base
	gone.DeletedAt = &when
	if _, err := svc.UpdateSession(context.Background(), "u1", gone.SessionID, SessionPatch{}, false); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for deleted session, got %v", err)
	}
}

func TestToggleCompleteFlipsAndStamps(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	base := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	sess := fs.addSession("u1", base, base.Add(time.Hour))

	clk := clock.NewFixed(base.Add(90 * time.Minute))
	svc := NewSchedulerService(fs, clk, SchedulerOptions{})

	done, err := svc.ToggleComplete(context.Background(), "u1", sess.SessionID, nil)
	if err != nil {
		t.Fatalf("ToggleComplete error: %v", err)
	}
	if !done.Completed || done.CompletedAt == nil || !done.CompletedAt.Equal(clk.Now()) {
		t.Fatalf("expected completion stamped at %v, got %+v", clk.Now(), done)
	}

	undone, err := svc.ToggleComplete(context.Background(), "u1", sess.SessionID, nil)
	if err != nil {
		t.Fatalf("ToggleComplete error: %v", err)
	}
	if undone.Completed || undone.CompletedAt != nil {
		t.Fatalf("expected completion cleared, got %+v", undone)
	}

	yes := true
	redone, err := svc.ToggleComplete(context.Background(), "u1", sess.SessionID, &yes)
	if err != nil {
		t.Fatalf("ToggleComplete error: %v", err)
	}
	if !redone.Completed {
		t.Fatalf("explicit complete did not apply: %+v", redone)
	}

	early := fs.addSession("u1", base.Add(24*time.Hour), base.Add(25*time.Hour))
	if _, err := svc.ToggleComplete(context.Background(), "u1", early.SessionID, &yes); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error before start, got %v", err)
	}

	// Once the clock passes the start the same request goes through.
	clk.Advance(25 * time.Hour)
	late, err := svc.ToggleComplete(context.Background(), "u1", early.SessionID, &yes)
	if err != nil {
		t.Fatalf("ToggleComplete after start: %v", err)
	}
	if !late.Completed || late.CompletedAt == nil || !late.CompletedAt.Equal(clk.Now()) {
		t.Fatalf("expected completion stamped at %v, got %+v", clk.Now(), late)
	}
}

func TestDeleteSessionSoftDeletes(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	base := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	sess := fs.addSession("u1", base, base.Add(time.Hour))

	svc := NewSchedulerService(fs, clock.NewFixed(base.Add(time.Hour)), SchedulerOptions{})
	if err := svc.DeleteSession(context.Background(), "u1", sess.SessionID); err != nil {
		t.Fatalf("DeleteSession error: %v", err)
	}
	if _, err := svc.GetSession(context.Background(), "u1", sess.SessionID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found after soft delete, got %v", err)
	}
	rows, err := svc.ListSessions(context.Background(), model.ListSessionsRequest{UserID: "u1", IncludeDeleted: true})
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if len(rows) != 1 || !rows[0].Deleted() {
		t.Fatalf("expected one tombstoned session, got %+v", rows)
	}
	if err := svc.DeleteSession(context.Background(), "u1", sess.SessionID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestListSessionsValidatesRange(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	svc := NewSchedulerService(fs, clock.NewFixed(fakeStamp), SchedulerOptions{})

	_, err := svc.ListSessions(context.Background(), model.ListSessionsRequest{
		UserID: "u1",
		From:   fakeStamp.Add(time.Hour),
		To:     fakeStamp,
	})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.ListSessions(context.Background(), model.ListSessionsRequest{UserID: "ghost"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
