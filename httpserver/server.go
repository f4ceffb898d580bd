package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/isdmx/venvbox/config"
	"github.com/isdmx/venvbox/executor"
)

// ExecutionService defines the service interface the HTTP layer depends on
type ExecutionService interface {
	Execute(ctx context.Context, req executor.Request) executor.Result
}

// Server serves the REST API
type Server struct {
	logger     *zap.Logger
	svc        ExecutionService
	router     chi.Router
	httpServer *http.Server
}

// infoResponse is the GET / payload
type infoResponse struct {
	Message  string `json:"message"`
	Version  string `json:"version"`
	Endpoint string `json:"endpoint"`
}

// New creates a Server listening on the configured HTTP port
func New(cfg *config.Config, logger *zap.Logger, svc ExecutionService) *Server {
	s := &Server{
		logger: logger,
		svc:    svc,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleInfo)
	r.Post("/execute", s.handleExecute)
	s.router = r

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// ServeHTTP makes the server usable as a plain http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start begins serving and blocks until the listener closes
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, infoResponse{
		Message:  "venvbox code execution service",
		Version:  "1.0.0",
		Endpoint: "/execute",
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executor.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("invalid execution request body", zap.Error(err))
		s.writeJSON(w, http.StatusBadRequest, executor.Result{Error: "invalid request body"})
		return
	}
	if req.Code == "" {
		s.writeJSON(w, http.StatusBadRequest, executor.Result{Error: "code must not be empty"})
		return
	}

	result := s.svc.Execute(r.Context(), req)

	// The result always has the wire shape; execution failures travel in
	// the body, not in the status code.
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}
