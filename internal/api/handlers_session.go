package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	respond "github.com/routinely/routinely-server/internal/api/respond"
	"github.com/routinely/routinely-server/internal/model"
	"github.com/routinely/routinely-server/internal/services"
)

// SessionHandler is the HTTP transport for scheduled sessions.
type SessionHandler struct {
	svc *services.SchedulerService
}

func NewSessionHandler(svc *services.SchedulerService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// CreateSession POST /api/users/{userId}/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Title            string    `json:"title"`
		Type             string    `json:"type"`
		StartTime        time.Time `json:"startTime"`
		EndTime          time.Time `json:"endTime"`
		Priority         int       `json:"priority"`
		Description      *string   `json:"description,omitempty"`
		FromSuggestionID *string   `json:"fromSuggestionId,omitempty"`
		AllowConflicts   bool      `json:"allowConflicts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	sess := &model.Session{
		UserID:           userID,
		Title:            in.Title,
		Type:             model.ActivityType(in.Type),
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		Priority:         in.Priority,
		Description:      in.Description,
		FromSuggestionID: in.FromSuggestionID,
	}
	out, err := h.svc.CreateSession(r.Context(), sess, in.AllowConflicts)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListSessions GET /api/users/{userId}/sessions?from=&to=&includeDeleted=
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	q := r.URL.Query()

	req := model.ListSessionsRequest{UserID: userID, IncludeDeleted: q.Get("includeDeleted") == "true"}
	if s := q.Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respond.WriteBadRequest(w, "from must be RFC3339")
			return
		}
		req.From = t
	}
	if s := q.Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respond.WriteBadRequest(w, "to must be RFC3339")
			return
		}
		req.To = t
	}

	rows, err := h.svc.ListSessions(r.Context(), req)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []*model.Session{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"sessions": rows, "count": len(rows)})
}

// GetSession GET /api/users/{userId}/sessions/{sessionId}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sess, err := h.svc.GetSession(r.Context(), vars["userId"], vars["sessionId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sess)
}

// UpdateSession PATCH /api/users/{userId}/sessions/{sessionId}
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var in struct {
		Title          *string    `json:"title"`
		StartTime      *time.Time `json:"startTime"`
		EndTime        *time.Time `json:"endTime"`
		Priority       *int       `json:"priority"`
		Description    *string    `json:"description"`
		AllowConflicts bool       `json:"allowConflicts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	patch := services.SessionPatch{
		Title:       in.Title,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Priority:    in.Priority,
		Description: in.Description,
	}
	out, err := h.svc.UpdateSession(r.Context(), vars["userId"], vars["sessionId"], patch, in.AllowConflicts)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ToggleComplete POST /api/users/{userId}/sessions/{sessionId}/complete
// An empty body flips the current state; {"completed": bool} sets it.
func (h *SessionHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var in struct {
		Completed *bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.ToggleComplete(r.Context(), vars["userId"], vars["sessionId"], in.Completed)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteSession DELETE /api/users/{userId}/sessions/{sessionId}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.DeleteSession(r.Context(), vars["userId"], vars["sessionId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
