// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat snake_case so env vars map one to one (MATCHWINNER_QUEUE_SIZE -> queue_size).
// - Durations are whole milliseconds or seconds, named by unit.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"time"

	"github.com/okian/matchwinner/internal/adapters/repository"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds"`

	// DwellMS is the minimum time the loading view is shown.
	DwellMS int `koanf:"dwell_ms"`

	// RequestTimeoutMS bounds each prediction service call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// PredictorURL is the prediction service endpoint. Empty selects the
	// built-in rank predictor.
	PredictorURL string `koanf:"predictor_url"`

	// PredictorLatencyMinMS and PredictorLatencyMaxMS bound the simulated
	// latency of the built-in predictor.
	PredictorLatencyMinMS int `koanf:"predictor_latency_min_ms"`
	PredictorLatencyMaxMS int `koanf:"predictor_latency_max_ms"`

	// RosterFile is an optional YAML roster; empty uses the built-in teams.
	RosterFile string `koanf:"roster_file"`

	// AssetsDir holds <team>.png logos; empty shows placeholders.
	AssetsDir string `koanf:"assets_dir"`

	// SessionTTLSeconds is how long an idle browser session is kept.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// SecureCookie marks the session cookie Secure.
	SecureCookie bool `koanf:"secure_cookie"`

	// HistoryBackend selects the history store: memory, redis or postgres.
	HistoryBackend string `koanf:"history_backend"`

	// HistoryCapacity bounds the memory and redis stores.
	HistoryCapacity int `koanf:"history_capacity"`

	// MaxHistoryLimit caps GET /api/history?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`

	// Redis history backend.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisKey      string `koanf:"redis_key"`

	// Postgres history backend.
	PostgresDSN      string `koanf:"postgres_dsn"`
	PostgresMaxConns int    `koanf:"postgres_max_conns"`

	// QueueSize bounds the in-memory history queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of history workers.
	WorkerCount int `koanf:"worker_count"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":8080",
		ShutdownTimeoutSeconds: 10,
		DwellMS:                1500,
		RequestTimeoutMS:       10_000,
		PredictorLatencyMinMS:  80,
		PredictorLatencyMaxMS:  150,
		SessionTTLSeconds:      1800,
		HistoryBackend:         repository.BackendMemory,
		HistoryCapacity:        1000,
		MaxHistoryLimit:        100,
		RedisAddr:              "localhost:6379",
		RedisKey:               "matchwinner:history",
		PostgresMaxConns:       10,
		QueueSize:              1024,
		WorkerCount:            2,
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DwellMS < 0:
		return fmt.Errorf("%w: dwell_ms must not be negative", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.PredictorLatencyMinMS < 0 || c.PredictorLatencyMaxMS < c.PredictorLatencyMinMS:
		return fmt.Errorf("%w: predictor latency range %d..%d", ErrInvalidConfig, c.PredictorLatencyMinMS, c.PredictorLatencyMaxMS)
	case c.SessionTTLSeconds <= 0:
		return fmt.Errorf("%w: session_ttl_seconds must be positive", ErrInvalidConfig)
	case c.MaxHistoryLimit <= 0:
		return fmt.Errorf("%w: max_history_limit must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}

	switch c.HistoryBackend {
	case repository.BackendMemory:
	case repository.BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	case repository.BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown history_backend %q", ErrInvalidConfig, c.HistoryBackend)
	}
	return nil
}

// Dwell returns DwellMS as a duration.
func (c *Config) Dwell() time.Duration { return time.Duration(c.DwellMS) * time.Millisecond }

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// SessionTTL returns SessionTTLSeconds as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// ShutdownTimeout returns ShutdownTimeoutSeconds as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// History returns the repository configuration for the history store.
func (c *Config) History() repository.Config {
	return repository.Config{
		Backend:  c.HistoryBackend,
		Capacity: c.HistoryCapacity,
		RedisKey: c.RedisKey,
		Redis: repository.RedisConfig{
			Address:  c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		},
		Postgres: repository.PostgresConfig{
			DSN:            c.PostgresDSN,
			MaxConnections: c.PostgresMaxConns,
		},
	}
}
