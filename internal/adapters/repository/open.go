package repository

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Backend  string
	Capacity int
	RedisKey string
	Redis    RedisConfig
	Postgres PostgresConfig
}

// Open builds the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	opts := []Option{WithCapacity(cfg.Capacity), WithRedisKey(cfg.RedisKey)}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(opts...), nil
	case BackendRedis:
		s, err := OpenRedis(ctx, cfg.Redis, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendPostgres:
		s, err := OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
