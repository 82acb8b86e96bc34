// Package service exposes the QA pipeline as an HTTP API so other services
// and agents can request trace analysis over the wire.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/agentqa/mentor/internal/models"
)

// Analyzer runs the QA pipeline over one trace. Satisfied by
// *orchestration.Orchestrator.
type Analyzer interface {
	RunAnalysis(ctx context.Context, trace *models.ConversationTrace) (models.QaReport, error)
}

// AnalyzerFactory builds an analyzer for one request. The session id comes
// from the request body and may be empty.
type AnalyzerFactory func(sessionID string) Analyzer

// Config holds the HTTP server configuration.
type Config struct {
	Port   int
	Logger *slog.Logger
}

// Server wraps the HTTP server with configuration.
type Server struct {
	cfg    Config
	srv    *http.Server
	logger *slog.Logger

	newAnalyzer AnalyzerFactory

	mu         sync.Mutex
	lastReport *models.QaReport
}

// New creates a new HTTP server around an analyzer factory.
func New(cfg Config, newAnalyzer AnalyzerFactory) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	mux := http.NewServeMux()
	s := &Server{
		cfg:         cfg,
		logger:      cfg.Logger,
		newAnalyzer: newAnalyzer,
		srv: &http.Server{
			Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	s.registerRoutes(mux)
	return s
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logger.Info("HTTP server starting", "address", s.srv.Addr)

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
		}
	}()

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) setLastReport(report models.QaReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReport = &report
}

func (s *Server) getLastReport() *models.QaReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}
