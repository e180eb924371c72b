package ui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/thep200/devfolio-sync/api"
	"github.com/thep200/devfolio-sync/cfg"
	"github.com/thep200/devfolio-sync/internal/store"
	"github.com/thep200/devfolio-sync/pkg/log"
)

// Server serves the portfolio store read-only over HTTP
type Server struct {
	Logger log.Logger
	Config *cfg.Config
	Store  store.Store
	Sync   *api.SyncAPI
	server *http.Server
	port   int
}

// NewServer creates a new UI server
func NewServer(logger log.Logger, config *cfg.Config, st store.Store, port int) (*Server, error) {
	return &Server{
		Logger: logger,
		Config: config,
		Store:  st,
		port:   port,
	}, nil
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	handler, err := NewHandler(s.Logger, s.Config, s.Store)
	if err != nil {
		return fmt.Errorf("failed to create UI handler: %w", err)
	}
	handler.Sync = s.Sync

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.Logger.Info(context.Background(), "Starting UI server on port %d", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.Logger.Info(ctx, "Shutting down UI server")
		err := s.server.Shutdown(ctx)
		if s.Sync != nil && s.Sync.StopSync() {
			s.Logger.Info(ctx, "Waiting for the running sync to stop")
			s.Sync.Wait()
		}
		return err
	}
	return nil
}
