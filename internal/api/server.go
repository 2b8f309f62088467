// Package api provides the HTTP API server and handlers for BuddyRead.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/buddyread/buddyread-server/internal/http/response"
	"github.com/buddyread/buddyread-server/internal/metrics"
	"github.com/buddyread/buddyread-server/internal/ratelimit"
)

// Pinger reports whether the relational store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports the size of the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Options configures the HTTP server.
type Options struct {
	Version     string
	CORSOrigins []string

	// Per-IP limits for the unauthenticated credential endpoints.
	// Nil limiters get the defaults.
	LoginLimiter *ratelimit.KeyedRateLimiter
	ClaimLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       Pinger
	index    DocumentCounter
	services *Services
	metrics  *metrics.Metrics
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger

	loginLimiter *ratelimit.KeyedRateLimiter
	claimLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(db Pinger, index DocumentCounter, services *Services, m *metrics.Metrics, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.LoginLimiter == nil {
		opts.LoginLimiter = ratelimit.PerInterval(defaultLoginPerMinute, rateLimitInterval, defaultLoginBurst)
	}
	if opts.ClaimLimiter == nil {
		opts.ClaimLimiter = ratelimit.PerInterval(defaultClaimPerMinute, rateLimitInterval, defaultClaimBurst)
	}

	s := &Server{
		db:           db,
		index:        index,
		services:     services,
		metrics:      m,
		router:       chi.NewRouter(),
		logger:       logger,
		loginLimiter: opts.LoginLimiter,
		claimLimiter: opts.ClaimLimiter,
	}

	s.setupMiddleware(opts)

	s.api = humachi.New(s.router, newHumaConfig(opts.Version))
	RegisterErrorHandler(logger)

	s.setupRoutes()
	return s
}

// newHumaConfig builds the OpenAPI config shared by the server and tests.
func newHumaConfig(version string) huma.Config {
	config := huma.DefaultConfig("BuddyRead API", version)
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	config.Transformers = append(config.Transformers, EnvelopeTransformer)
	return config
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, used to dump the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops the background sweepers of the rate limiters.
func (s *Server) Close() {
	s.loginLimiter.Stop()
	s.claimLimiter.Stop()
}

// setupMiddleware configures the middleware stack. chi requires all
// middleware to be registered before the first route.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}

	if len(opts.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.Use(clientInfoMiddleware)
	s.router.Use(authMiddleware(s.services.Auth))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "method not allowed", s.logger)
	})
}

// setupRoutes registers every operation.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.registerAuthRoutes()
	s.registerClubRoutes()
	s.registerBookRoutes()
	s.registerReviewRoutes()
	s.registerInviteRoutes()
}
