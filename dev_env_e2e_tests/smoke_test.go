//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
//
//	Test 1: Suggest-and-book round trip (core flow)
//
// -----------------------------------------------------------------------------
// Creates a user → availability window → suggestion page via the public REST
// API, books the top-ranked slot, and verifies that the booked slot stops
// being suggested and starts gating overlapping bookings.
func TestDevEnv_SuggestAndBookRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}

	schedSvc := env("SCHEDULER_API", "http://localhost:8080")
	requireStack(t, schedSvc, 3*time.Second)

	// 1. Create a dedicated test user (unique per run) and ensure cleanup
	var userResp struct {
		UserID string `json:"userId"`
	}
	uPayload := fmt.Sprintf(`{"email":"smoke-%d@example.com","timeZone":"UTC"}`, time.Now().UnixNano())
	uResp, err := http.Post(schedSvc+"/api/users", "application/json", bytes.NewBufferString(uPayload))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	mustJSON(t, uResp, &userResp)
	defer func() {
		req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/users/%s", schedSvc, userResp.UserID), nil)
		_, _ = http.DefaultClient.Do(req)
	}()

	baseUserPath := fmt.Sprintf("%s/api/users/%s", schedSvc, userResp.UserID)

	// 2. Open tomorrow 07:00-09:00 UTC
	day := strings.ToUpper(time.Now().UTC().AddDate(0, 0, 1).Weekday().String()[:3])
	wPayload := fmt.Sprintf(`{"dayOfWeek":"%s","startTime":"07:00","endTime":"09:00"}`, day)
	wResp, err := http.Post(baseUserPath+"/availability", "application/json", bytes.NewBufferString(wPayload))
	if err != nil {
		t.Fatalf("add window: %v", err)
	}
	var windowResp struct {
		WindowID string `json:"windowId"`
	}
	mustJSON(t, wResp, &windowResp)

	// 3. Request suggestions
	type suggestion struct {
		ID        string    `json:"id"`
		StartTime time.Time `json:"startTime"`
		EndTime   time.Time `json:"endTime"`
		Score     int       `json:"score"`
	}
	var page struct {
		Suggestions []suggestion `json:"suggestions"`
		Total       int          `json:"total"`
	}
	sPayload := `{"type":"workout","durationMinutes":30}`
	sResp, err := http.Post(baseUserPath+"/suggestions", "application/json", bytes.NewBufferString(sPayload))
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	mustJSON(t, sResp, &page)
	if len(page.Suggestions) == 0 {
		t.Fatalf("expected suggestions for an open window, got none")
	}
	top := page.Suggestions[0]
	totalBefore := page.Total

	// DEBUG: print identifiers so we can reproduce with curl
	t.Logf("round trip: userID=%s windowID=%s topSlot=%s score=%d", userResp.UserID, windowResp.WindowID, top.StartTime, top.Score)

	// 4. Book the top-ranked slot, carrying provenance
	bPayload := fmt.Sprintf(`{"type":"workout","startTime":"%s","endTime":"%s","fromSuggestionId":"%s"}`,
		top.StartTime.Format(time.RFC3339), top.EndTime.Format(time.RFC3339), top.ID)
	bResp, err := http.Post(baseUserPath+"/sessions", "application/json", bytes.NewBufferString(bPayload))
	if err != nil {
		t.Fatalf("book session: %v", err)
	}
	var sessionResp struct {
		SessionID string `json:"sessionId"`
	}
	mustJSON(t, bResp, &sessionResp)

	// 5. The booked slot must disappear from the next page
	sResp, err = http.Post(baseUserPath+"/suggestions", "application/json", bytes.NewBufferString(sPayload))
	if err != nil {
		t.Fatalf("re-suggest: %v", err)
	}
	var after struct {
		Suggestions []suggestion `json:"suggestions"`
		Total       int          `json:"total"`
	}
	mustJSON(t, sResp, &after)
	if after.Total != totalBefore-1 {
		t.Fatalf("expected total to shrink by one after booking, got %d -> %d", totalBefore, after.Total)
	}
	for _, s := range after.Suggestions {
		if s.StartTime.Equal(top.StartTime) {
			t.Fatalf("booked slot %s still suggested", s.StartTime)
		}
	}

	// 6. The booking now gates the interval
	var probe struct {
		Conflicts []struct {
			SessionID string `json:"sessionId"`
		} `json:"conflicts"`
	}
	cPayload := fmt.Sprintf(`{"startTime":"%s","endTime":"%s"}`,
		top.StartTime.Format(time.RFC3339), top.EndTime.Format(time.RFC3339))
	cResp, err := http.Post(baseUserPath+"/conflicts/check", "application/json", bytes.NewBufferString(cPayload))
	if err != nil {
		t.Fatalf("conflict check: %v", err)
	}
	mustJSON(t, cResp, &probe)
	if len(probe.Conflicts) != 1 || probe.Conflicts[0].SessionID != sessionResp.SessionID {
		t.Fatalf("expected the booked session to gate its slot, got %+v", probe.Conflicts)
	}

	rebook, err := http.Post(baseUserPath+"/sessions", "application/json", bytes.NewBufferString(bPayload))
	if err != nil {
		t.Fatalf("rebook: %v", err)
	}
	defer rebook.Body.Close()
	if rebook.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 when rebooking the same slot, got %d", rebook.StatusCode)
	}

	// 7. Completion only applies once a session has started; log yesterday's
	// workout retroactively and mark it done.
	past := time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Hour)
	pPayload := fmt.Sprintf(`{"type":"workout","startTime":"%s","endTime":"%s"}`,
		past.Format(time.RFC3339), past.Add(30*time.Minute).Format(time.RFC3339))
	pResp, err := http.Post(baseUserPath+"/sessions", "application/json", bytes.NewBufferString(pPayload))
	if err != nil {
		t.Fatalf("log past session: %v", err)
	}
	var pastSession struct {
		SessionID string `json:"sessionId"`
	}
	mustJSON(t, pResp, &pastSession)

	compResp, err := http.Post(baseUserPath+"/sessions/"+pastSession.SessionID+"/complete", "application/json", bytes.NewBufferString(`{"completed":true}`))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	var completed struct {
		Completed   bool       `json:"completed"`
		CompletedAt *time.Time `json:"completedAt"`
	}
	mustJSON(t, compResp, &completed)
	if !completed.Completed || completed.CompletedAt == nil {
		t.Fatalf("expected completed session, got %+v", completed)
	}

	// 8. Deleting the booking frees the slot again
	req, _ := http.NewRequest(http.MethodDelete, baseUserPath+"/sessions/"+sessionResp.SessionID, nil)
	dResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete session: %v", err)
	}
	_ = dResp.Body.Close()
	if dResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", dResp.StatusCode)
	}

	cResp, err = http.Post(baseUserPath+"/conflicts/check", "application/json", bytes.NewBufferString(cPayload))
	if err != nil {
		t.Fatalf("conflict re-check: %v", err)
	}
	mustJSON(t, cResp, &probe)
	if len(probe.Conflicts) != 0 {
		t.Fatalf("deleted session still gating: %+v", probe.Conflicts)
	}
}

// -----------------------------------------------------------------------------
//
//	Test 2: Conflict override (allowConflicts escape hatch)
//
// -----------------------------------------------------------------------------
func TestDevEnv_ConflictOverride(t *testing.T) {
	if testing.Short() {
		t.Skip("skip in short mode")
	}

	schedSvc := env("SCHEDULER_API", "http://localhost:8080")
	requireStack(t, schedSvc, 3*time.Second)

	// 1. user
	var userResp struct {
		UserID string `json:"userId"`
	}
	uPayload := fmt.Sprintf(`{"email":"override-%d@example.com"}`, time.Now().UnixNano())
	uResp, err := http.Post(schedSvc+"/api/users", "application/json", bytes.NewBufferString(uPayload))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	mustJSON(t, uResp, &userResp)
	defer func() {
		req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/users/%s", schedSvc, userResp.UserID), nil)
		_, _ = http.DefaultClient.Do(req)
	}()

	baseUserPath := fmt.Sprintf("%s/api/users/%s", schedSvc, userResp.UserID)

	// 2. base booking tomorrow 18:00-19:00 UTC
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	book := func(payload string) *http.Response {
		resp, err := http.Post(baseUserPath+"/sessions", "application/json", bytes.NewBufferString(payload))
		if err != nil {
			t.Fatalf("book: %v", err)
		}
		return resp
	}

	basePayload := fmt.Sprintf(`{"type":"reading","startTime":"%s","endTime":"%s"}`,
		start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339))
	var baseResp struct {
		SessionID string `json:"sessionId"`
	}
	mustJSON(t, book(basePayload), &baseResp)

	// 3. overlapping booking without override must carry the blocker list
	overlapPayload := fmt.Sprintf(`{"type":"learning","startTime":"%s","endTime":"%s"}`,
		start.Add(30*time.Minute).Format(time.RFC3339), start.Add(90*time.Minute).Format(time.RFC3339))
	resp := book(overlapPayload)
	var conflictBody struct {
		Code      int `json:"code"`
		Conflicts []struct {
			SessionID string `json:"sessionId"`
		} `json:"conflicts"`
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&conflictBody); err != nil {
		t.Fatalf("decode conflict body: %v", err)
	}
	_ = resp.Body.Close()
	if len(conflictBody.Conflicts) != 1 || conflictBody.Conflicts[0].SessionID != baseResp.SessionID {
		t.Fatalf("unexpected conflict payload: %+v", conflictBody)
	}

	// 4. same interval with allowConflicts books fine
	overridePayload := fmt.Sprintf(`{"type":"learning","startTime":"%s","endTime":"%s","allowConflicts":true}`,
		start.Add(30*time.Minute).Format(time.RFC3339), start.Add(90*time.Minute).Format(time.RFC3339))
	var overrideResp struct {
		SessionID string `json:"sessionId"`
	}
	mustJSON(t, book(overridePayload), &overrideResp)
	if overrideResp.SessionID == "" {
		t.Fatalf("override booking did not return a session")
	}
}
