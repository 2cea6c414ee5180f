package config

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	validLogLevels      = []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validStorageDrivers = []string{"sqlite", "postgres"}
)

// validateConfig validates the configuration and returns an error if invalid.
func validateConfig(c *Config) error {
	for _, validate := range []func() error{
		func() error { return validateServerConfig(c.Server) },
		func() error { return validateStorageConfig(c.Storage) },
		func() error { return validateBrokerConfig(c.Broker) },
		func() error { return validateSchedulerConfig(c.Scheduler) },
		func() error { return validateMonitorConfig(c.Monitor) },
		func() error { return validateSimulatorConfig(c.Simulator) },
		func() error { return validateLogConfig(c.Log) },
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateServerConfig validates server configuration.
func validateServerConfig(s ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	// Validate address format
	host, portStr, err := net.SplitHostPort(s.Addr)
	if err != nil {
		return fmt.Errorf("server.addr invalid format: %w", err)
	}

	// Validate port range
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("server.addr invalid port: %w", err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("server.addr port out of range (1-65535)")
		}
	}

	// Validate host if specified
	if host != "" && host != "0.0.0.0" && host != "localhost" {
		if ip := net.ParseIP(host); ip == nil {
			if _, err := net.LookupHost(host); err != nil {
				return fmt.Errorf("server.addr invalid host: %s", host)
			}
		}
	}

	// Validate timeouts
	if s.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be greater than 0")
	}
	if s.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be greater than 0")
	}
	if s.IdleTimeout <= 0 {
		return fmt.Errorf("server.idle_timeout must be greater than 0")
	}

	if s.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("server.read_timeout too large (max 5m)")
	}
	if s.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("server.write_timeout too large (max 5m)")
	}
	if s.IdleTimeout > 30*time.Minute {
		return fmt.Errorf("server.idle_timeout too large (max 30m)")
	}

	if s.ReadTimeout < time.Second {
		return fmt.Errorf("server.read_timeout too small (min 1s)")
	}
	if s.WriteTimeout < time.Second {
		return fmt.Errorf("server.write_timeout too small (min 1s)")
	}

	return nil
}

// validateStorageConfig validates storage configuration.
func validateStorageConfig(s StorageConfig) error {
	if !slices.Contains(validStorageDrivers, s.Driver) {
		return fmt.Errorf("storage.driver must be one of: sqlite, postgres")
	}

	if s.DSN == "" {
		return fmt.Errorf("storage.dsn cannot be empty")
	}

	// Validate path format (basic check)
	if s.Driver == "sqlite" && strings.Contains(s.DSN, "..") {
		return fmt.Errorf("storage.dsn cannot contain '..' for security")
	}

	// Validate connection pool settings
	if s.MaxOpenConns <= 0 {
		return fmt.Errorf("storage.max_open_conns must be greater than 0")
	}
	if s.MaxIdleConns < 0 {
		return fmt.Errorf("storage.max_idle_conns cannot be negative")
	}
	if s.MaxIdleConns > s.MaxOpenConns {
		return fmt.Errorf("storage.max_idle_conns cannot be greater than max_open_conns")
	}
	if s.ConnMaxLifetime <= 0 {
		return fmt.Errorf("storage.conn_max_lifetime must be greater than 0")
	}

	if s.MaxOpenConns > 1000 {
		return fmt.Errorf("storage.max_open_conns too large (max 1000)")
	}
	if s.ConnMaxLifetime > 24*time.Hour {
		return fmt.Errorf("storage.conn_max_lifetime too large (max 24h)")
	}
	if s.ConnMaxLifetime < time.Minute {
		return fmt.Errorf("storage.conn_max_lifetime too small (min 1m)")
	}

	if s.ConnectRetries < 1 {
		return fmt.Errorf("storage.connect_retries must be at least 1")
	}
	if s.ConnectRetries > 10 {
		return fmt.Errorf("storage.connect_retries too large (max 10)")
	}
	if s.ConnectBackoff <= 0 {
		return fmt.Errorf("storage.connect_backoff must be greater than 0")
	}

	return nil
}

// validateBrokerConfig validates MQTT broker configuration.
func validateBrokerConfig(b BrokerConfig) error {
	if !b.Enabled {
		return nil
	}

	if b.URL == "" {
		return fmt.Errorf("broker.url is required when broker is enabled")
	}
	if !strings.Contains(b.URL, "://") {
		return fmt.Errorf("broker.url must include a scheme (tcp://, ssl://, ws://)")
	}
	if b.ClientID == "" {
		return fmt.Errorf("broker.client_id is required when broker is enabled")
	}
	if b.QoS > 2 {
		return fmt.Errorf("broker.qos must be 0, 1 or 2")
	}
	if b.ConnectTimeout <= 0 {
		return fmt.Errorf("broker.connect_timeout must be greater than 0")
	}
	if b.KeepAlive <= 0 {
		return fmt.Errorf("broker.keep_alive must be greater than 0")
	}

	return nil
}

// validateSchedulerConfig validates scheduler configuration.
func validateSchedulerConfig(s SchedulerConfig) error {
	if s.WorkerCount <= 0 {
		return fmt.Errorf("scheduler.worker_count must be greater than 0")
	}
	if s.WorkerCount > 1000 {
		return fmt.Errorf("scheduler.worker_count too large (max 1000)")
	}
	return nil
}

// validateMonitorConfig validates monitoring pipeline configuration.
func validateMonitorConfig(m MonitorConfig) error {
	if m.RetentionDays <= 0 {
		return fmt.Errorf("monitor.retention_days must be greater than 0")
	}
	if m.RetentionDays > 3650 {
		return fmt.Errorf("monitor.retention_days too large (max 3650)")
	}

	if m.WriteTimeout <= 0 {
		return fmt.Errorf("monitor.write_timeout must be greater than 0")
	}
	if m.WriteTimeout > time.Minute {
		return fmt.Errorf("monitor.write_timeout too large (max 1m)")
	}

	if _, err := time.LoadLocation(m.Timezone); err != nil {
		return fmt.Errorf("monitor.timezone invalid: %w", err)
	}

	if m.CleanupInterval < time.Hour {
		return fmt.Errorf("monitor.cleanup_interval too small (min 1h)")
	}

	return nil
}

// validateSimulatorConfig validates simulator configuration.
func validateSimulatorConfig(s SimulatorConfig) error {
	if !s.Enabled {
		return nil
	}
	if s.Interval < time.Second {
		return fmt.Errorf("simulator.interval too small (min 1s)")
	}
	if s.Interval > time.Hour {
		return fmt.Errorf("simulator.interval too large (max 1h)")
	}
	return nil
}

// validateLogConfig validates log configuration.
func validateLogConfig(l LogConfig) error {
	if !slices.Contains(validLogLevels, strings.ToLower(l.Level)) {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error, fatal, panic")
	}
	return nil
}
