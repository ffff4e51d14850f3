// Package api provides the HTTP API server and handlers for the Marginalia application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/marginalia-app/marginalia-server/internal/ratelimit"
	"github.com/marginalia-app/marginalia-server/internal/validation"
)

// Version is the API version reported by the OpenAPI document.
const Version = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  *Services
	router    *chi.Mux
	api       huma.API
	validator *validation.Validator
	limiter   *ratelimit.KeyedRateLimiter
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	limiter := ratelimit.New(requestsPerSecond, requestBurst)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(rateLimitMiddleware(limiter, logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID"},
		MaxAge:         300,
	}))

	humaConfig := huma.DefaultConfig("Marginalia API", Version)
	humaConfig.Info.Description = "Book discovery, library, and reading notes API"

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		services:  services,
		router:    router,
		api:       api,
		validator: validation.New(),
		limiter:   limiter,
		logger:    logger,
	}

	s.registerHealthRoutes()
	s.registerDiscoveryRoutes()
	s.registerRecommendationRoutes()
	s.registerTrendingRoutes()
	s.registerLibraryRoutes()
	s.registerNoteRoutes()

	return s
}

// validate runs struct tag validation on a request payload.
func (s *Server) validate(payload any) error {
	return s.validator.Validate(payload)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held background resources.
func (s *Server) Close() {
	s.limiter.Stop()
}
