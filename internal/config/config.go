// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the config file when no --config flag is given.
const EnvConfigPath = "CONFIG_PATH"

// EnvPrefix prefixes the per-setting environment overrides.
const EnvPrefix = "EMESRT_"

// Config is the complete service configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
	RateLimiter RateLimiterConfig `yaml:"rate_limiter"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// ReuseStore opens one store per process instead of one per request.
	ReuseStore bool `yaml:"reuse_store"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects the persistence backend. An unknown backend is not
// a config error; the store layer falls back to memory and says so.
type StoreConfig struct {
	Backend        string        `yaml:"backend"`
	Namespace      string        `yaml:"namespace"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SQLite         SQLiteConfig  `yaml:"sqlite"`
	Redis          RedisConfig   `yaml:"redis"`
}

// SQLiteConfig holds the SQLite backend settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds the Redis backend settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RefreshConfig controls where records come from and how often the
// server refreshes on its own. A zero ScheduleInterval disables it.
type RefreshConfig struct {
	ScheduleInterval time.Duration `yaml:"schedule_interval"`
	DatasetFile      string        `yaml:"dataset_file"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Backend:        "sqlite",
			Namespace:      "emesrt",
			ConnectTimeout: 2 * time.Second,
			SQLite:         SQLiteConfig{Path: "emesrt.db"},
			Redis:          RedisConfig{Addr: "localhost:6379"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimiter: RateLimiterConfig{
			RequestsPerSecond: 50,
			BurstSize:         100,
		},
	}
}

// Locate returns the config path to load: the flag value if set, else
// $CONFIG_PATH, else "".
func Locate(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfigPath)
}

// Load reads the file at path over the defaults, applies EMESRT_*
// environment overrides and validates. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults fills values a file may have blanked out.
func setDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if cfg.Store.Namespace == "" {
		cfg.Store.Namespace = def.Store.Namespace
	}
	if cfg.Store.ConnectTimeout == 0 {
		cfg.Store.ConnectTimeout = def.Store.ConnectTimeout
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = def.Metrics.Path
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
}

// applyEnv overrides settings from EMESRT_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("STORE_BACKEND", &cfg.Store.Backend)
	str("STORE_NAMESPACE", &cfg.Store.Namespace)
	str("SQLITE_PATH", &cfg.Store.SQLite.Path)
	str("REDIS_ADDR", &cfg.Store.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Store.Redis.Password)
	str("DATASET_FILE", &cfg.Refresh.DatasetFile)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	if v, ok := lookup(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookup(EnvPrefix + "SCHEDULE_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSCHEDULE_INTERVAL: %w", EnvPrefix, err)
		}
		cfg.Refresh.ScheduleInterval = d
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("server timeouts must not be negative"))
	}
	if c.Store.ConnectTimeout < 0 {
		errs = append(errs, fmt.Errorf("store.connect_timeout must not be negative"))
	}
	if c.Store.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("store.redis.db must not be negative"))
	}
	if c.Refresh.ScheduleInterval < 0 {
		errs = append(errs, fmt.Errorf("refresh.schedule_interval must not be negative"))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with /"))
	}
	if c.RateLimiter.Enabled {
		if c.RateLimiter.RequestsPerSecond <= 0 {
			errs = append(errs, fmt.Errorf("rate limiter requests per second must be positive"))
		}
		if c.RateLimiter.BurstSize <= 0 {
			errs = append(errs, fmt.Errorf("rate limiter burst size must be positive"))
		}
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
