package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/outage-insights-service/internal/adapter/nesfeed"
	"github.com/couchcryptid/outage-insights-service/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// FeedHealthChecker probes the upstream outage feed.
type FeedHealthChecker interface {
	CheckHealth(ctx context.Context) nesfeed.HealthReport
}

// Server exposes health, readiness, metrics, and the outage report API.
type Server struct {
	httpServer *http.Server
	registry   *domain.ZipRegistry
	feed       FeedHealthChecker
	validate   *validator.Validate
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithFeedHealth enables GET /health backed by checker.
func WithFeedHealth(checker FeedHealthChecker) Option {
	return func(s *Server) {
		s.feed = checker
	}
}

// WithRegistry sets the zip registry used for area names in reports.
func WithRegistry(registry *domain.ZipRegistry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 report routes.
func NewServer(addr string, ready ReadinessChecker, logger *slog.Logger, opts ...Option) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		registry: domain.DefaultRegistry(),
		validate: validator.New(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", handleReady(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	if s.feed != nil {
		r.Get("/health", s.handleFeedHealth)
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reports", s.handleReport)
		r.Post("/exports/csv", s.handleExportCSV)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleFeedHealth reports on the upstream feed; 503 when any check fails.
func (s *Server) handleFeedHealth(w http.ResponseWriter, r *http.Request) {
	report := s.feed.CheckHealth(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
