//
// 🔒 Invariant contract checks for the scheduling service
// ⚠️  Exercise the public HTTP API only - no store access, no shortcuts
// 🛡️  A failing check here means a released guarantee broke
// 📋  Fix the service, never the invariant
//

package invariants

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Checker drives invariant verification through the customer-facing API,
// treating the scheduler as a black box.
type Checker struct {
	baseURL string
	client  *http.Client
}

// NewChecker returns a Checker aimed at the service under baseURL.
func NewChecker(baseURL string) *Checker {
	return &Checker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// 🔒 INVARIANT: Bookings never silently double-book
func (c *Checker) VerifyConflictGate(t *testing.T, userID string) {
	// Baseline session tomorrow 10:00-11:00 UTC.
	base := c.book(t, userID, "workout", tomorrowAt(10), tomorrowAt(11), false)

	// 🔒 INVARIANT: Overlapping bookings are rejected with the blockers listed
	t.Run("OverlapWithoutOverrideRejected", func(t *testing.T) {
		body := c.call(t, "POST", c.sessionsPath(userID), map[string]any{
			"type":      "chores",
			"startTime": stamp(tomorrowAt(10).Add(30 * time.Minute)),
			"endTime":   stamp(tomorrowAt(11).Add(30 * time.Minute)),
		}, http.StatusConflict)

		var rejection struct {
			Code      int               `json:"code"`
			Conflicts []SessionResponse `json:"conflicts"`
		}
		require.NoError(t, json.Unmarshal(body, &rejection))
		assert.Equal(t, http.StatusConflict, rejection.Code)
		require.Len(t, rejection.Conflicts, 1, "Rejection must carry the blocking session")
		assert.Equal(t, base.SessionID, rejection.Conflicts[0].SessionID)
	})

	// 🔒 INVARIANT: The override flag is the only way through the gate
	t.Run("OverlapWithOverrideBooks", func(t *testing.T) {
		body := c.call(t, "POST", c.sessionsPath(userID), map[string]any{
			"type":           "chores",
			"startTime":      stamp(tomorrowAt(10).Add(30 * time.Minute)),
			"endTime":        stamp(tomorrowAt(11).Add(30 * time.Minute)),
			"allowConflicts": true,
		}, http.StatusCreated)

		var created SessionResponse
		require.NoError(t, json.Unmarshal(body, &created))
		assert.NotEmpty(t, created.SessionID)
	})

	// 🔒 INVARIANT: Touching intervals do not conflict (half-open semantics)
	t.Run("TouchingIntervalsDoNotConflict", func(t *testing.T) {
		// Starts exactly where the override booking ends.
		c.call(t, "POST", c.sessionsPath(userID), map[string]any{
			"type":      "learning",
			"startTime": stamp(tomorrowAt(11).Add(30 * time.Minute)),
			"endTime":   stamp(tomorrowAt(12).Add(30 * time.Minute)),
		}, http.StatusCreated)
	})
}

// 🔒 INVARIANT: Suggestions never overlap live sessions and are reproducible
func (c *Checker) VerifySuggestionDeterminism(t *testing.T, userID string) {
	// Open tomorrow 07:00-09:00 and book 07:30-08:00 inside it.
	c.openWindow(t, userID, tomorrowWeekday(), "07:00", "09:00")
	booked := c.book(t, userID, "workout", tomorrowAt(7).Add(30*time.Minute), tomorrowAt(8), false)

	ask := map[string]any{"type": "workout", "durationMinutes": 30}

	// 🔒 INVARIANT: No suggestion intersects a booked session
	t.Run("SuggestionsAvoidBookedSessions", func(t *testing.T) {
		body := c.call(t, "POST", c.suggestionsPath(userID), ask, http.StatusOK)

		var page SuggestionPageResponse
		require.NoError(t, json.Unmarshal(body, &page))
		require.NotEmpty(t, page.Suggestions, "Window minus booking must leave open slots")

		for _, s := range page.Suggestions {
			overlaps := s.StartTime.Before(booked.EndTime) && booked.StartTime.Before(s.EndTime)
			assert.False(t, overlaps, "suggestion %s [%s, %s) overlaps booked session", s.ID, s.StartTime, s.EndTime)
		}
	})

	// 🔒 INVARIANT: Identical requests return identical pages
	t.Run("SuggestionsAreReproducible", func(t *testing.T) {
		first := c.call(t, "POST", c.suggestionsPath(userID), ask, http.StatusOK)
		second := c.call(t, "POST", c.suggestionsPath(userID), ask, http.StatusOK)

		var p1, p2 SuggestionPageResponse
		require.NoError(t, json.Unmarshal(first, &p1))
		require.NoError(t, json.Unmarshal(second, &p2))
		assert.Equal(t, p1, p2, "Same request must yield the same ranked page")
	})
}

// 🔒 INVARIANT: Soft delete behavior
func (c *Checker) VerifySoftDeleteLifecycle(t *testing.T, userID string) {
	// Book a session three days out.
	start := tomorrowAt(14).Add(48 * time.Hour)
	session := c.book(t, userID, "reading", start, start.Add(time.Hour), false)

	// 🔒 INVARIANT: Deleted sessions disappear from reads immediately
	t.Run("DeletedSessionsNotInLists", func(t *testing.T) {
		one := fmt.Sprintf("%s/%s", c.sessionsPath(userID), session.SessionID)
		c.call(t, "DELETE", one, nil, http.StatusNoContent)
		c.call(t, "GET", one, nil, http.StatusNotFound)

		body := c.call(t, "GET", c.sessionsPath(userID), nil, http.StatusOK)

		var list struct {
			Sessions []SessionResponse `json:"sessions"`
		}
		require.NoError(t, json.Unmarshal(body, &list))
		for _, s := range list.Sessions {
			assert.NotEqual(t, session.SessionID, s.SessionID, "Deleted session must not appear in lists")
		}
	})

	// 🔒 INVARIANT: Deleted sessions stop blocking the slot
	t.Run("DeletedSessionsDoNotBlock", func(t *testing.T) {
		c.call(t, "POST", c.sessionsPath(userID), map[string]any{
			"type":      "reading",
			"startTime": stamp(start),
			"endTime":   stamp(start.Add(time.Hour)),
		}, http.StatusCreated)
	})
}

// 🔒 INVARIANT: User data isolation
func (c *Checker) VerifyCalendarIsolation(t *testing.T, userA, userB string) {
	sA := c.book(t, userA, "workout", tomorrowAt(6), tomorrowAt(7), false)
	sB := c.book(t, userB, "workout", tomorrowAt(6), tomorrowAt(7), false)

	// 🔒 INVARIANT: Users cannot read each other's sessions
	t.Run("CrossUserSessionAccessForbidden", func(t *testing.T) {
		c.call(t, "GET", fmt.Sprintf("%s/%s", c.sessionsPath(userA), sB.SessionID), nil, http.StatusNotFound)
		c.call(t, "GET", fmt.Sprintf("%s/%s", c.sessionsPath(userB), sA.SessionID), nil, http.StatusNotFound)
	})

	// 🔒 INVARIANT: One user's bookings never gate another's
	t.Run("CrossUserBookingsDoNotConflict", func(t *testing.T) {
		ask := map[string]any{
			"type":      "learning",
			"startTime": stamp(tomorrowAt(6)),
			"endTime":   stamp(tomorrowAt(7)),
		}

		// userB already holds this slot themselves.
		c.call(t, "POST", c.sessionsPath(userB), ask, http.StatusConflict)

		// A third user with a clear calendar books it freely.
		userC := c.ProvisionUser(t)
		c.call(t, "POST", c.sessionsPath(userC), ask, http.StatusCreated)
	})
}

// ProvisionUser registers a unique user and returns its ID.
func (c *Checker) ProvisionUser(t *testing.T) string {
	body := c.call(t, "POST", "/api/users", map[string]any{
		"email": fmt.Sprintf("invariant-%d@example.com", time.Now().UnixNano()),
	}, http.StatusCreated)

	var user struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(body, &user))
	require.NotEmpty(t, user.UserID)
	return user.UserID
}

func (c *Checker) openWindow(t *testing.T, userID, day, start, end string) {
	c.call(t, "POST", fmt.Sprintf("/api/users/%s/availability", userID), map[string]any{
		"dayOfWeek": day,
		"startTime": start,
		"endTime":   end,
	}, http.StatusCreated)
}

func (c *Checker) book(t *testing.T, userID, sessionType string, start, end time.Time, allowConflicts bool) *SessionResponse {
	ask := map[string]any{
		"type":      sessionType,
		"startTime": stamp(start),
		"endTime":   stamp(end),
	}
	if allowConflicts {
		ask["allowConflicts"] = true
	}

	body := c.call(t, "POST", c.sessionsPath(userID), ask, http.StatusCreated)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(body, &session))
	return &session
}

// call performs one API request, asserts the status and returns the raw body.
func (c *Checker) call(t *testing.T, method, path string, payload any, wantStatus int) []byte {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, wantStatus, resp.StatusCode,
		"%s %s: expected status %d, got %d (body: %s)", method, path, wantStatus, resp.StatusCode, body)
	return body
}

func (c *Checker) sessionsPath(userID string) string {
	return fmt.Sprintf("/api/users/%s/sessions", userID)
}

func (c *Checker) suggestionsPath(userID string) string {
	return fmt.Sprintf("/api/users/%s/suggestions", userID)
}

func stamp(ts time.Time) string { return ts.Format(time.RFC3339) }

// tomorrowAt returns tomorrow at the given UTC hour, on the hour.
func tomorrowAt(hour int) time.Time {
	now := time.Now().UTC()
	d := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, 1)
}

// tomorrowWeekday returns tomorrow's weekday code (MON..SUN).
func tomorrowWeekday() string {
	return strings.ToUpper(time.Now().UTC().AddDate(0, 0, 1).Weekday().String()[:3])
}

// Response models mirroring the public API payloads.

type SessionResponse struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Priority  int       `json:"priority"`
	Completed bool      `json:"completed"`
}

type SuggestionResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Score     int       `json:"score"`
	Reasons   []string  `json:"reasons"`
}

type SuggestionPageResponse struct {
	Suggestions []SuggestionResponse `json:"suggestions"`
	Total       int                  `json:"total"`
	HasMore     bool                 `json:"hasMore"`
}
