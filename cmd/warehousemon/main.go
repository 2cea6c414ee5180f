// Package main provides the entry point for the warehouse monitoring system.
//
// The service watches warehouse sensor readings against per-warehouse
// threshold configurations, raises severity-classified alerts, routes
// notifications to the right users, and maintains analytics, daily reports,
// and retention of historical data.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehousemon/internal/config"
	"warehousemon/internal/server"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version information set during build time
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// main is the entry point of the warehouse monitoring system.
//
// The startup sequence is as follows:
//  1. Load configuration
//  2. Initialize logger
//  3. Setup graceful shutdown handling
//  4. Start the main server
func main() {
	cfg := loadConfig()
	initLogger(cfg.Log)

	log.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Str("build_time", BuildTime).
		Msg("Starting warehouse monitoring system")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg).Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server terminated")
	}
}

// loadConfig loads application configuration and terminates the program
// immediately if configuration cannot be loaded.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().
			Err(err).
			Msg("Failed to load configuration")
	}
	return cfg
}

// initLogger configures the global zerolog logger from the log section.
func initLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}
