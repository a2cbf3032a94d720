package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	respond "github.com/routinely/routinely-server/internal/api/respond"
	"github.com/routinely/routinely-server/internal/model"
	"github.com/routinely/routinely-server/internal/services"
)

// SuggestionHandler is the HTTP transport for the suggestion engine.
type SuggestionHandler struct {
	svc *services.SchedulerService
}

func NewSuggestionHandler(svc *services.SchedulerService) *SuggestionHandler {
	return &SuggestionHandler{svc: svc}
}

// Suggest POST /api/users/{userId}/suggestions
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var req model.SuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	page, err := h.svc.Suggest(r.Context(), userID, req)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, page)
}

// CheckConflicts POST /api/users/{userId}/conflicts/check
func (h *SuggestionHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		StartTime time.Time `json:"startTime"`
		EndTime   time.Time `json:"endTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	conflicts, err := h.svc.CheckConflicts(r.Context(), userID, in.StartTime, in.EndTime)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if conflicts == nil {
		conflicts = []model.Session{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"conflicts": conflicts, "count": len(conflicts)})
}
