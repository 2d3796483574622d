package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
	"crowdfund/internal/runtime"
	"crowdfund/internal/storage"
)

// Host is the request runtime the API submits to and reads from
type Host interface {
	Submit(ctx context.Context, sub models.Submission) (*models.Receipt, error)
	State() ledger.Ledger
	Now() uint64
	CustodyBalance() uint64
	Custody() string
	Tokens() runtime.TokenSource
}

// Server represents the HTTP API server
// Provides endpoints for request submission, project queries, Prometheus
// metrics and health checks
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	host       Host
	repository storage.Repository
	port       int
}

// NewServer creates a new API server instance
func NewServer(port int, host Host, repository storage.Repository) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		mux:        mux,
		host:       host,
		repository: repository,
		port:       port,
	}

	// Register all HTTP routes
	s.registerRoutes()

	return s
}

// Handler exposes the routed handler (for tests and embedding)
func (s *Server) Handler() http.Handler {
	return s.mux
}

// registerRoutes sets up all HTTP routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.handleMetrics())

	// Requests
	s.mux.HandleFunc("POST /requests", s.handleSubmit)

	// Project endpoints
	s.mux.HandleFunc("GET /projects", s.handleListProjects)
	s.mux.HandleFunc("GET /projects/{id}", s.handleGetProject)
	s.mux.HandleFunc("GET /projects/{id}/contributions/{account}", s.handleGetContribution)
	s.mux.HandleFunc("GET /projects/{id}/rewards/{account}", s.handleGetReward)

	// Custody and audit trail
	s.mux.HandleFunc("GET /custody", s.handleCustody)
	s.mux.HandleFunc("GET /activities", s.handleListActivities)
}

// Start binds the listening port and serves in the background
// A port that cannot be bound is reported here rather than from the goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	slog.Info("API server listening",
		"addr", ln.Addr().String(),
		"endpoints", []string{"/", "/health", "/metrics", "/requests", "/projects", "/custody", "/activities"},
	)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the HTTP server
// Waits for active connections to close or context to timeout
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("API server shutting down", "port", s.port)
	return s.httpServer.Shutdown(ctx)
}
