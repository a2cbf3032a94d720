package api

import (
	"github.com/gorilla/mux"

	"github.com/routinely/routinely-server/internal/api/recovery"
	"github.com/routinely/routinely-server/internal/clock"
	"github.com/routinely/routinely-server/internal/config"
	"github.com/routinely/routinely-server/internal/services"
	"github.com/routinely/routinely-server/internal/store"
)

// NewRouter wires every API route to its handler. The scheduler tunables
// come from cfg; clk is the time source threaded into the suggestion and
// completion paths.
func NewRouter(st store.Store, clk clock.Clock, cfg *config.Config) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	userSvc := services.NewUserService(st)
	availabilitySvc := services.NewAvailabilityService(st)
	schedulerSvc := services.NewSchedulerService(st, clk, services.SchedulerOptions{
		DefaultLookAheadDays: cfg.DefaultLookAheadDays,
		MaxLookAheadDays:     cfg.MaxLookAheadDays,
		HistoryDays:          cfg.HistoryDays,
		DefaultPageSize:      cfg.DefaultPageSize,
		MaxPageSize:          cfg.MaxPageSize,
	})

	// Users
	users := NewUserHandler(userSvc)
	root.HandleFunc("/api/users", users.CreateUser).Methods("POST")
	root.HandleFunc("/api/users/{userId}", users.GetUser).Methods("GET")
	root.HandleFunc("/api/users/{userId}", users.DeleteUser).Methods("DELETE")

	// Availability windows
	availability := NewAvailabilityHandler(availabilitySvc)
	root.HandleFunc("/api/users/{userId}/availability", availability.AddWindow).Methods("POST")
	root.HandleFunc("/api/users/{userId}/availability", availability.ListWindows).Methods("GET")
	root.HandleFunc("/api/users/{userId}/availability/{windowId}", availability.RemoveWindow).Methods("DELETE")

	// Suggestions and the read-only conflict probe
	suggestions := NewSuggestionHandler(schedulerSvc)
	root.HandleFunc("/api/users/{userId}/suggestions", suggestions.Suggest).Methods("POST")
	root.HandleFunc("/api/users/{userId}/conflicts/check", suggestions.CheckConflicts).Methods("POST")

	// Sessions
	sessions := NewSessionHandler(schedulerSvc)
	root.HandleFunc("/api/users/{userId}/sessions", sessions.CreateSession).Methods("POST")
	root.HandleFunc("/api/users/{userId}/sessions", sessions.ListSessions).Methods("GET")
	root.HandleFunc("/api/users/{userId}/sessions/{sessionId}", sessions.GetSession).Methods("GET")
	root.HandleFunc("/api/users/{userId}/sessions/{sessionId}", sessions.UpdateSession).Methods("PATCH")
	root.HandleFunc("/api/users/{userId}/sessions/{sessionId}/complete", sessions.ToggleComplete).Methods("POST")
	root.HandleFunc("/api/users/{userId}/sessions/{sessionId}", sessions.DeleteSession).Methods("DELETE")

	// Health
	root.HandleFunc("/api/health", checkHealth).Methods("GET")

	return root
}
