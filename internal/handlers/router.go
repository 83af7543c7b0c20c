package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the HTTP surface. Routes that require the persistent
// store are registered unconditionally; their handlers answer 503 when
// the database is disabled.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/contests", func(r chi.Router) {
			r.Get("/", h.GetContests)
			r.Get("/live", h.GetLiveContests)
			r.Get("/upcoming", h.GetUpcomingContests)
			r.Get("/platforms", h.GetPlatforms)
			r.Get("/stats/summary", h.GetStats)
		})

		r.Route("/scraper", func(r chi.Router) {
			r.Post("/all", h.TriggerAllScrapers)
			r.Post("/cleanup", h.TriggerCleanup)
			r.Get("/status", h.ScraperStatus)
			r.Post("/{platform}", h.TriggerScraper)
		})
	})

	return r
}
