package config

import "github.com/spf13/viper"

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "warehousemon.db")
	v.SetDefault("storage.max_open_conns", 32)
	v.SetDefault("storage.max_idle_conns", 8)
	v.SetDefault("storage.conn_max_lifetime", "1h")
	v.SetDefault("storage.connect_retries", 3)
	v.SetDefault("storage.connect_backoff", "2s")

	// Broker defaults
	v.SetDefault("broker.enabled", false)
	v.SetDefault("broker.url", "tcp://localhost:1883")
	v.SetDefault("broker.client_id", "warehousemon")
	v.SetDefault("broker.qos", 1)
	v.SetDefault("broker.connect_timeout", "10s")
	v.SetDefault("broker.keep_alive", "30s")

	// Scheduler defaults
	v.SetDefault("scheduler.worker_count", 10)

	// Monitor defaults
	v.SetDefault("monitor.retention_days", 30)
	v.SetDefault("monitor.write_timeout", "10s")
	v.SetDefault("monitor.timezone", "UTC")
	v.SetDefault("monitor.cleanup_interval", "168h")

	// Simulator defaults
	v.SetDefault("simulator.enabled", false)
	v.SetDefault("simulator.interval", "30s")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
