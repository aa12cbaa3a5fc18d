package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hvacbridge/estimator/pkg/api/bridge"
	"github.com/hvacbridge/estimator/pkg/api/handlers"
	"github.com/hvacbridge/estimator/pkg/api/middleware"
	"github.com/hvacbridge/estimator/pkg/config"
	"github.com/hvacbridge/estimator/pkg/engine"
	log "github.com/sirupsen/logrus"
)

// Server represents the HTTP API server
type Server struct {
	config  *config.Config
	service *engine.Service
	backend string
	router  *chi.Mux
	server  *http.Server
}

// New creates a new API server. backend names the profile store for /health.
func New(cfg *config.Config, svc *engine.Service, backend string) *Server {
	s := &Server{
		config:  cfg,
		service: svc,
		backend: backend,
		router:  chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(30 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Bridge-Token", "X-User-Id"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	user := s.config.DefaultUser

	s.router.Get("/health", handlers.NewHealthHandler(s.service, s.backend).Handle)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.BridgeToken(s.config.BridgeToken))

		r.Route("/estimator", func(r chi.Router) {
			profiles := handlers.NewProfileHandler(s.service, user)
			r.Get("/profile", profiles.Get)
			r.Put("/config", profiles.PutConfig)
			r.Put("/catalog", profiles.PutCatalog)

			r.Post("/estimate", handlers.NewEstimateHandler(s.service, user).Handle)
			r.Post("/changeout/plan", handlers.NewPlanHandler(s.service, user).Handle)
			r.Post("/explain", handlers.NewExplainHandler(s.service, user).Handle)
			r.Post("/diff", handlers.NewDiffHandler().Handle)
			r.Post("/policy", handlers.NewPolicyHandler().Handle)
		})

		r.Mount("/bridge", bridge.New(s.service).Handler())
	})
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", port).Info("Starting HTTP server")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
