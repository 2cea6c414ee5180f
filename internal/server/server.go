// Package server provides the main orchestration for the warehouse
// monitoring system.
//
// This package coordinates the startup and shutdown of all core components:
//   - Database storage initialization
//   - Event source startup (MQTT broker or in-memory)
//   - Monitoring engine and scheduled jobs
//   - HTTP API server management
//   - Graceful shutdown handling
//
// The server follows a structured lifecycle:
//  1. Storage initialization
//  2. Event source connection
//  3. Engine startup and job scheduling
//  4. HTTP API server launch
//  5. Signal handling and graceful shutdown
package server

import (
	"context"
	"fmt"
	"time"

	"warehousemon/internal/api"
	"warehousemon/internal/config"
	"warehousemon/internal/core"
	"warehousemon/internal/simulator"
	"warehousemon/internal/source"
	"warehousemon/internal/storage"
	"warehousemon/internal/store"

	"github.com/rs/zerolog/log"
)

// shutdownTimeout bounds the graceful shutdown sequence.
const shutdownTimeout = 30 * time.Second

// retentionStartupDelay postpones the first retention sweep so that startup
// is never dominated by cleanup work.
const retentionStartupDelay = 24 * time.Hour

// Server represents the main server orchestrator.
//
// It manages the lifecycle of all core components and ensures proper
// initialization order and graceful shutdown.
type Server struct {
	cfg *config.Config
}

// New creates a new server instance with the provided configuration.
//
// The server is not started until Start() is called. This allows for proper
// dependency injection and testing.
func New(cfg *config.Config) *Server {
	return &Server{
		cfg: cfg,
	}
}

// Start initializes and starts all server components in the correct order.
//
// This method blocks until:
//   - A fatal error occurs during startup
//   - The provided context is cancelled (shutdown signal)
//   - The HTTP server encounters an unrecoverable error
//
// Returns an error if any component fails to start or stop gracefully.
func (s *Server) Start(ctx context.Context) error {
	// Phase 1: Initialize storage. Everything else depends on it; the
	// connect helper retries with backoff and gives up after the
	// configured budget.
	st, err := storage.Connect(s.cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	// Phase 2: Event source. With the broker disabled the engine runs
	// against the in-memory source, which only makes sense together with
	// the simulator.
	var (
		eventSource store.EventSource
		publisher   store.ReadingPublisher
		mqttSource  *source.MQTT
	)
	if s.cfg.Broker.Enabled {
		mqttSource, err = source.New(s.cfg.Broker)
		if err != nil {
			return fmt.Errorf("event source initialization failed: %w", err)
		}
		if err := mqttSource.Start(ctx); err != nil {
			return fmt.Errorf("event source connection failed: %w", err)
		}
		defer mqttSource.Stop()
		eventSource = mqttSource
		publisher = mqttSource
	} else {
		mem := store.NewMemory()
		eventSource = mem
		publisher = mem
		log.Warn().Msg("Broker disabled, running with in-memory event source")
	}

	// Phase 3: Monitoring engine and scheduled jobs.
	engine, err := core.NewEngine(s.cfg.Monitor, s.cfg.Scheduler.WorkerCount, st, eventSource)
	if err != nil {
		return fmt.Errorf("engine initialization failed: %w", err)
	}
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("engine startup failed: %w", err)
	}
	defer engine.Stop()

	scheduler := core.NewScheduler(s.cfg.Scheduler)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler startup failed: %w", err)
	}
	defer scheduler.Stop()

	if err := s.scheduleJobs(scheduler, engine, publisher); err != nil {
		return fmt.Errorf("job scheduling failed: %w", err)
	}

	// Phase 4: HTTP API server, in its own goroutine so the main loop can
	// wait on the shutdown signal.
	httpServer := api.NewServer(s.cfg.Server, engine, st)
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Phase 5: Wait for shutdown signal or server error.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received, starting graceful shutdown")
	}

	// Phase 6: Graceful shutdown. The HTTP server goes first so no new
	// requests land on components that are already stopping.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped gracefully")
	return nil
}

// scheduleJobs registers the periodic jobs: daily reports at local midnight,
// retention sweeps on the cleanup interval, and (optionally) the sensor
// simulator.
func (s *Server) scheduleJobs(scheduler *core.Scheduler, engine *core.Engine, publisher store.ReadingPublisher) error {
	// Midnight is recomputed before every run so DST shifts in the
	// configured timezone never drift the report off the day boundary.
	if err := scheduler.AddJob(&core.ScheduledJob{
		ID:   "daily-report",
		Next: engine.MidnightDelay,
		Task: engine.GenerateDailyReports,
	}); err != nil {
		return err
	}

	if err := scheduler.AddJob(&core.ScheduledJob{
		ID:       "retention-sweep",
		Delay:    retentionStartupDelay,
		Interval: s.cfg.Monitor.CleanupInterval,
		Task:     engine.SweepRetention,
	}); err != nil {
		return err
	}

	if s.cfg.Simulator.Enabled {
		sim := simulator.New(engine.Warehouses, publisher)
		if err := scheduler.AddJob(&core.ScheduledJob{
			ID:       "sensor-simulator",
			Interval: s.cfg.Simulator.Interval,
			Task:     sim.Run,
		}); err != nil {
			return err
		}
		log.Info().Dur("interval", s.cfg.Simulator.Interval).Msg("Sensor simulator enabled")
	}

	return nil
}
