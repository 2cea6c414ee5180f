// Package api provides the read-only HTTP surface of the warehouse
// monitoring system, implemented with the Gin framework.
//
// Example usage:
//
//	server := api.NewServer(cfg.Server, engine, st)
//	err := server.Start()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"warehousemon/internal/config"
	"warehousemon/internal/core"
	"warehousemon/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Server represents the HTTP API server.
type Server struct {
	config config.ServerConfig
	engine *core.Engine
	store  store.Store
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP API server instance.
//
// Parameters:
//   - cfg: Server configuration containing address and timeout settings
//   - engine: Core monitoring engine instance
//   - st: Store used for alert and report reads
//
// Returns:
//   - *Server: Initialized server instance
func NewServer(cfg config.ServerConfig, engine *core.Engine, st store.Store) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config: cfg,
		engine: engine,
		store:  st,
		router: gin.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return server
}

// Start starts the HTTP server and begins listening for requests.
//
// Returns:
//   - error: Any error that occurred during server startup
func (s *Server) Start() error {
	log.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
//
// Parameters:
//   - ctx: Context for shutdown timeout
//
// Returns:
//   - error: Any error that occurred during shutdown
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// setupMiddleware configures middleware for the Gin router.
func (s *Server) setupMiddleware() {
	// Request ID middleware (should be first)
	s.router.Use(RequestID())

	// Custom panic recovery middleware
	s.router.Use(PanicRecovery())

	// Custom logger middleware
	s.router.Use(LoggerMiddleware())
}
