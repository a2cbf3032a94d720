package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/routinely/routinely-server/internal/api/respond"
	"github.com/routinely/routinely-server/internal/api/validate"
	"github.com/routinely/routinely-server/internal/model"
	"github.com/routinely/routinely-server/internal/services"
)

// AvailabilityHandler is the HTTP transport for weekly availability windows.
type AvailabilityHandler struct {
	svc *services.AvailabilityService
}

func NewAvailabilityHandler(svc *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// AddWindow POST /api/users/{userId}/availability
func (h *AvailabilityHandler) AddWindow(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		DayOfWeek string          `json:"dayOfWeek"`
		StartTime model.LocalTime `json:"startTime"`
		EndTime   model.LocalTime `json:"endTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("dayOfWeek", in.DayOfWeek); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	win := &model.AvailabilityWindow{
		UserID:    userID,
		DayOfWeek: model.Weekday(in.DayOfWeek),
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}
	out, err := h.svc.AddWindow(r.Context(), win)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListWindows GET /api/users/{userId}/availability
func (h *AvailabilityHandler) ListWindows(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	ws, err := h.svc.ListWindows(r.Context(), userID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if ws == nil {
		ws = []*model.AvailabilityWindow{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"windows": ws, "count": len(ws)})
}

// RemoveWindow DELETE /api/users/{userId}/availability/{windowId}
func (h *AvailabilityHandler) RemoveWindow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.RemoveWindow(r.Context(), vars["userId"], vars["windowId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
