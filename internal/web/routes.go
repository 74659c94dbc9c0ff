package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/snapx/internal/web/handlers"
	"github.com/kozaktomas/snapx/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	log := s.opts.Logger
	collectionsHandler := handlers.NewCollectionsHandler(s.config, s.opts.Service, log)
	imagesHandler := handlers.NewImagesHandler(s.config, s.opts.Service, log)
	matchHandler := handlers.NewMatchHandler(s.opts.Service, log)
	shareHandler := handlers.NewShareHandler(s.config, s.opts.Service, log)
	matchLimiter := middleware.NewRateLimiter(s.config.Match.RatePerSecond, s.config.Match.RateBurst)

	// Health check and metrics (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())

	s.router.Get("/share/{id}", shareHandler.Page)

	if s.opts.Media != nil {
		s.router.Handle("/media/*", http.StripPrefix("/media", s.opts.Media))
	}

	s.router.Route("/api/v1/collections", func(r chi.Router) {
		// Guest routes
		r.Get("/{id}", collectionsHandler.Get)
		r.With(matchLimiter.Handler).Post("/{id}/find-my-photos", matchHandler.FindMyPhotos)

		// Owner routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.opts.Verifier))

			r.Post("/", collectionsHandler.Create)
			r.Get("/", collectionsHandler.List)
			r.Delete("/{id}", collectionsHandler.Delete)
			r.Post("/{id}/images", imagesHandler.Upload)
			r.Get("/{id}/images", imagesHandler.List)
		})
	})
}
