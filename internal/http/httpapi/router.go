package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"veogen/internal/http/handlers"
	"veogen/internal/infra"
	"veogen/internal/middleware"
)

// NewRouter wires the HTTP surface: health, uploads, generation runs and
// their download links.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.AllowedOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	limit := middleware.RateLimit(cfg.RateLimitPerMin, time.Minute, logger)

	r.Route("/v1/uploads", func(r chi.Router) {
		r.Use(limit)
		r.Post("/", app.UploadsCreate)
	})

	r.Route("/v1/generations", func(r chi.Router) {
		r.With(limit).Post("/", app.GenerationsCreate)
		r.Get("/", app.GenerationsList)
		r.Get("/{id}", app.GenerationsGet)
		r.Get("/{id}/links", app.GenerationsLinks)
		r.Get("/{id}/archive", app.GenerationsArchive)
	})

	return r
}
