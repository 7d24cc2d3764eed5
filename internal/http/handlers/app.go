package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"veogen/internal/domain"
	"veogen/internal/genvideo"
	"veogen/internal/infra"
)

// App bundles the workflow components the HTTP handlers dispatch into.
type App struct {
	Runs         domain.RunRepository
	Orchestrator *genvideo.Orchestrator
	Publisher    *genvideo.Publisher
	Uploader     *genvideo.Uploader
	Objects      ObjectReader
	Bucket       string
	MaxVariants  int
	Logger       infra.Logger

	// GenerateTimeout bounds one background batch run; zero means unbounded,
	// matching the poller's run-until-terminal contract.
	GenerateTimeout time.Duration
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

// Health reports liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
