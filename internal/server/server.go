// Package server hosts the trial chat endpoint and the HTTP middleware
// stack.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pysensei/ai-gateway/internal/telemetry"
)

type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
}

func New(port int, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, telemetry.ServiceName)
	})

	return &Server{
		Router: r,
		Port:   port,
		logger: logger,
	}
}

// MountTrial registers the trial chat endpoint at path with the rate-limit
// header middleware applied.
func (s *Server) MountTrial(path string, handler http.Handler) {
	s.Router.With(RateLimitHeaderMiddleware).Post(path, handler.ServeHTTP)
}

func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	return http.ListenAndServe(fmt.Sprintf(":%d", s.Port), s.Router)
}
