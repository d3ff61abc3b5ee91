// Package api serves the budget tool over HTTP: an HTML route set for
// browsers under /budget and a JSON route set for the mobile client under
// /api/budget.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ficoreafrica/ledger/auth"
	"github.com/ficoreafrica/ledger/service"
)

// DefaultAllowedOrigins are the origins the mobile client is served from.
var DefaultAllowedOrigins = []string{"http://localhost:8100", "https://ficoreafrica.com"}

// Server is the budget HTTP server.
type Server struct {
	svc     *service.Service
	auth    *auth.Authenticator
	logger  *slog.Logger
	origins []string
	timeout time.Duration
	metrics http.Handler
	health  func(context.Context) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithAllowedOrigins sets the CORS allow-list for the JSON routes.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithTimeout bounds the time spent on one request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithHealthCheck sets the check behind /healthz.
func WithHealthCheck(fn func(context.Context) error) Option {
	return func(s *Server) { s.health = fn }
}

// NewServer creates a Server.
func NewServer(svc *service.Service, authn *auth.Authenticator, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		auth:    authn,
		logger:  slog.Default(),
		origins: DefaultAllowedOrigins,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(cors(s.origins))
	r.Use(s.crossOrigin())

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/budget", func(r chi.Router) {
		r.Use(s.auth.Middleware(s.denyWeb))
		r.Get("/index", s.webIndex)
		r.Get("/new", s.webNewForm)
		r.Post("/new", s.webCreate)
		r.Get("/dashboard", s.webDashboard)
		r.Get("/manage", s.webManage)
		r.Post("/delete_budget", s.webDelete)
		r.Get("/export_pdf/{type}", s.webExport)
		r.Get("/export_pdf/{type}/{id}", s.webExport)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/budget/index", s.apiIndex)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware(s.denyJSON))
			r.Post("/budget/new", s.apiCreate)
			r.Get("/budget/dashboard", s.apiDashboard)
			r.Get("/budget/manage", s.apiManage)
			r.Post("/budget/delete", s.apiDelete)
			r.Get("/budget/export_pdf/{type}", s.apiExport)
			r.Get("/budget/export_pdf/{type}/{id}", s.apiExport)
			r.Get("/credits", s.apiCredits)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
