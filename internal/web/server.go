package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	"github.com/votermatch/internal/config"
	"github.com/votermatch/internal/web/handlers"
	"github.com/votermatch/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     config.ServerConfig
	engine     handlers.Matcher
	logger     *slog.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a server exposing engine over HTTP
func NewServer(cfg config.ServerConfig, engine handlers.Matcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: cfg,
		engine: engine,
		logger: logger,
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  2 * cfg.ReadTimeout,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	h := &handlers.MatchHandler{
		Engine: s.engine,
		Config: handlers.Config{MaxBatchSize: s.config.MaxBatchSize},
	}

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/match", h.Match).Methods(http.MethodPost)
	api.HandleFunc("/people/{id}/result", h.GetResult).Methods(http.MethodGet)
	api.HandleFunc("/people/{id}/result", h.DeleteResult).Methods(http.MethodDelete)

	// Modification endpoints (if enabled)
	if s.config.ManualOverride {
		api.HandleFunc("/people/{id}/confirm", h.Confirm).Methods(http.MethodPost)
		api.HandleFunc("/people/{id}/reject", h.Reject).Methods(http.MethodPost)
	}

	s.router.Use(middleware.Recover(s.logger))
	s.router.Use(middleware.RequestLogging(s.logger))
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
