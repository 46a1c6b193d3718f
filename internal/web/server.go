// package web serves the operational HTTP endpoints: liveness and a
// small status report for dashboards.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tawhid120/Save-restricted-content-bot/internal/logger"
)

// Config holds server configuration
type Config struct {
	Port int
}

// StatusFunc supplies the current status report. Called per request.
type StatusFunc func(ctx context.Context) Status

// Status is the /status payload.
type Status struct {
	Bot           string `json:"bot"`
	Uptime        string `json:"uptime"`
	UsersSeen     int64  `json:"users_seen,omitempty"`
	ActiveBatches int    `json:"active_batches"`
	DBConnections int32  `json:"db_connections,omitempty"`
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *Config
	listener   net.Listener
	status     StatusFunc
	log        *logger.Logger
}

// NewServer creates a new HTTP server. status may be nil, in which case
// /status serves an empty report.
func NewServer(cfg *Config, status StatusFunc) *Server {
	srv := &Server{
		router: chi.NewRouter(),
		config: cfg,
		status: status,
		log:    logger.Component("web"),
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	return srv
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	// basic cors
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			_ = err // Client disconnected
		}
	})

	s.router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		var report Status
		if s.status != nil {
			report = s.status(r.Context())
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			s.log.Error().Err(err).Msg("web: encode status")
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s.httpServer.Serve(listener)
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// BaseURL returns the server's base URL
func (s *Server) BaseURL() string {
	if s.listener != nil {
		return fmt.Sprintf("http://%s", s.listener.Addr().String())
	}
	return fmt.Sprintf("http://localhost:%d", s.config.Port)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
