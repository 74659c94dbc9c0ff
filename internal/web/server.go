package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/config"
	"github.com/kozaktomas/snapx/internal/gallery"
	"github.com/kozaktomas/snapx/internal/metrics"
	"github.com/kozaktomas/snapx/internal/web/middleware"
)

// Options carries the collaborators the server routes requests to.
type Options struct {
	Service  *gallery.Service
	Verifier *middleware.TokenVerifier
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Media    http.Handler // serves locally stored objects under /media, optional
}

// Server represents the web server
type Server struct {
	config     *config.Config
	opts       Options
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(false)
	}
	if opts.Verifier == nil {
		opts.Verifier = middleware.NewTokenVerifier(cfg.Auth.TokenSecret)
	}

	trustedProxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		opts.Logger.Warn("ignoring invalid trusted proxies", zap.Error(err))
	}

	r := chi.NewRouter()
	s := &Server{
		config: cfg,
		opts:   opts,
		router: r,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RealIP(trustedProxies))
	r.Use(middleware.AccessLog(opts.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute, // large multipart uploads
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.opts.Logger.Info("starting web server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.opts.Logger.Info("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
