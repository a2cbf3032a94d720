package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/routinely/routinely-server/internal/api/respond"
)

// serviceHealth holds the aggregate health probe. run.go rebinds it once the
// dependency checkers are running; until then the service reports unhealthy.
var serviceHealth atomic.Pointer[func() bool]

func init() {
	down := func() bool { return false }
	serviceHealth.Store(&down)
}

// BindServiceHealth injects the aggregate health function.
func BindServiceHealth(f func() bool) { serviceHealth.Store(&f) }

// checkHealth handles GET /api/health. The endpoint always answers 200; the
// body carries the verdict so balancers and humans read the same signal.
func checkHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if probe := serviceHealth.Load(); probe != nil && (*probe)() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
