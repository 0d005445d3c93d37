// Package httpx wires the HTTP router and middleware chain for the
// status surface.
package httpx

import (
	"net/http"

	"github.com/taskdeck/taskdeck/pkg/config"
	"github.com/taskdeck/taskdeck/pkg/server/api"
	v1 "github.com/taskdeck/taskdeck/pkg/server/api/v1"
)

// NewRouter creates and configures the main HTTP router.
//
// The router uses Go 1.22+ enhanced pattern matching for cleaner routes.
// API routes are mounted conditionally on cfg.APIEnabled; health
// endpoints are always enabled for liveness/readiness checks.
func NewRouter(cfg config.ServerConfig, deps *api.Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints (always enabled)
	mux.HandleFunc("GET /healthz", HealthzHandler)
	mux.HandleFunc("GET /readyz", v1.ReadyzHandler(deps.Ready))

	// API endpoints (conditional)
	if cfg.APIEnabled {
		mux.HandleFunc("GET /api/v1/jobs", v1.ListJobsHandler(deps))
		mux.HandleFunc("POST /api/v1/jobs", v1.SubmitJobHandler(deps))
		mux.HandleFunc("GET /api/v1/jobs/{id}", v1.GetJobHandler(deps))
		mux.HandleFunc("POST /api/v1/jobs/{id}/cancel", v1.CancelJobHandler(deps))
		mux.HandleFunc("GET /api/v1/stats", v1.StatsHandler(deps))
	}

	return mux
}

// HealthzHandler responds with 200 OK if the server process is alive.
//
// It does not check dependencies - just process health. For readiness
// checks that gate on the scheduler being started, use /readyz instead.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
