package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete configuration schema for the warehouse
// monitoring core.
//
// Configuration sources (in order of precedence):
//  1. Defaults
//  2. Configuration file (optional)
//  3. Environment variables
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Broker    BrokerConfig    `mapstructure:"broker" yaml:"broker"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Monitor   MonitorConfig   `mapstructure:"monitor" yaml:"monitor"`
	Simulator SimulatorConfig `mapstructure:"simulator" yaml:"simulator"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

type StorageConfig struct {
	// Driver selects the database backend: "sqlite" or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is the data source name (file path for sqlite, connection
	// string for postgres).
	DSN string `mapstructure:"dsn" yaml:"dsn"`

	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`

	// ConnectRetries bounds the startup connection attempts; the process
	// exits once the budget is exhausted.
	ConnectRetries int           `mapstructure:"connect_retries" yaml:"connect_retries"`
	ConnectBackoff time.Duration `mapstructure:"connect_backoff" yaml:"connect_backoff"`
}

// BrokerConfig configures the MQTT event source. When Enabled is false the
// engine runs against the in-memory event source (useful together with the
// sensor simulator).
type BrokerConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	URL            string        `mapstructure:"url" yaml:"url"`
	ClientID       string        `mapstructure:"client_id" yaml:"client_id"`
	Username       string        `mapstructure:"username" yaml:"username"`
	Password       string        `mapstructure:"password" yaml:"password"`
	QoS            uint          `mapstructure:"qos" yaml:"qos"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	KeepAlive      time.Duration `mapstructure:"keep_alive" yaml:"keep_alive"`
}

type SchedulerConfig struct {
	WorkerCount int `mapstructure:"worker_count" yaml:"worker_count"`
}

// MonitorConfig holds the numeric policy of the monitoring pipeline.
type MonitorConfig struct {
	// RetentionDays is the age beyond which historical records are
	// eligible for deletion.
	RetentionDays int `mapstructure:"retention_days" yaml:"retention_days"`

	// WriteTimeout bounds every individual store interaction issued from
	// the reading-processing path.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// Timezone is the IANA zone used to derive calendar dates for
	// analytics partitioning and report boundaries.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`

	// CleanupInterval is how often the retention sweeper runs.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

type SimulatorConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error, fatal, panic
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"` // human-readable console output
}

// Load loads configuration from defaults, configuration file,
// and environment variables, then validates the result.
//
// The function fails fast on:
//   - Invalid configuration file
//   - Invalid or missing required configuration values
func Load() (*Config, error) {
	v := viper.New()

	// Register default values
	setDefaults(v)

	// Environment variable support
	v.SetEnvPrefix("WAREHOUSEMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()

	// Optional configuration file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Cross-platform config directory
	if configDir := getConfigDir(); configDir != "" {
		v.AddConfigPath(configDir)
	}

	// Read configuration file if present
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	// Explicitly bind environment variables for nested keys that the
	// automatic env mapping misses when no file value exists. Only bind
	// when the variable is actually set so file values keep precedence.
	if _, exists := os.LookupEnv("WAREHOUSEMON_BROKER_PASSWORD"); exists {
		v.BindEnv("broker.password", "WAREHOUSEMON_BROKER_PASSWORD")
	}
	if _, exists := os.LookupEnv("WAREHOUSEMON_STORAGE_DSN"); exists {
		v.BindEnv("storage.dsn", "WAREHOUSEMON_STORAGE_DSN")
	}

	// Unmarshal configuration into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Normalize configuration
	normalizeConfig(&cfg)

	// Validate final configuration
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// getConfigDir returns the appropriate config directory for the current OS
func getConfigDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "warehousemon")
		}
		return ""
	}

	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".warehousemon")
	}
	return ""
}
