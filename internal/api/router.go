package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/api/handlers"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/config"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/services"
)

type Deps struct {
	Solver  *services.Solver
	Config  *config.Config
	Journal *obs.Journal
	// Metrics serves Config.Metrics.Path when set.
	Metrics http.Handler
	Log     zerolog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	dispatch := &handlers.DispatchHandler{Solver: d.Solver, Config: d.Config}
	logs := &handlers.LogsHandler{Journal: d.Journal}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/dispatch", dispatch.Solve)
	mux.HandleFunc("/dispatch/status", dispatch.Status)
	mux.HandleFunc("/dispatch/cancel", dispatch.Cancel)
	mux.HandleFunc("/logs", logs.List)

	if d.Metrics != nil {
		path := d.Config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, d.Metrics)
	}

	return requestIDMiddleware(d.Log, loggingMiddleware(mux))
}
