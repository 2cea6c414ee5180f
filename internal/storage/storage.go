package storage

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warehousemon/internal/config"
)

// Storage wraps the GORM database instance and provides access to it.
type Storage struct {
	db *gorm.DB
}

// New initializes a new Storage instance using GORM based on the provided configuration.
//
// Supported drivers:
//   - "sqlite": for development and single-node deployments
//   - "postgres": for production, high-availability setups
//
// Connection pooling and timeouts are configured according to config.StorageConfig.
// All models are auto-migrated on startup.
func New(cfg config.StorageConfig) (*Storage, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		// Enable WAL and foreign keys via DSN
		dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on", cfg.DSN)
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve sql.DB from GORM: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	models := []interface{}{
		&AlertRecord{},
		&WarehouseStateRecord{},
		&AnalyticsRecord{},
		&NotificationRecord{},
		&ReportRecord{},
		&AuditRecord{},
		&ErrorRecord{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}

	return &Storage{db: db}, nil
}

// Connect opens the database with bounded retries. The backoff doubles on
// every failed attempt; once the retry budget is exhausted the last error is
// returned and the caller is expected to exit.
func Connect(cfg config.StorageConfig) (*Storage, error) {
	backoff := cfg.ConnectBackoff
	var lastErr error

	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		s, err := New(cfg)
		if err == nil {
			if attempt > 1 {
				log.Info().Int("attempt", attempt).Msg("Database connection established")
			}
			return s, nil
		}
		lastErr = err

		if attempt == cfg.ConnectRetries {
			break
		}
		log.Warn().
			Int("attempt", attempt).
			Int("max_attempts", cfg.ConnectRetries).
			Dur("backoff", backoff).
			Err(err).
			Msg("Database connection failed, retrying")
		time.Sleep(backoff)
		backoff *= 2
	}

	return nil, fmt.Errorf("database unreachable after %d attempts: %w", cfg.ConnectRetries, lastErr)
}

// DB returns the underlying GORM database instance.
func (s *Storage) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve sql.DB for closing: %w", err)
	}
	return sqlDB.Close()
}
