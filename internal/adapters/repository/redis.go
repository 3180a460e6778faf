package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisStore keeps history as a capped redis list of JSON entries, newest
// at the head.
type RedisStore struct {
	client   *redis.Client
	key      string
	capacity int
}

// OpenRedis connects to redis and verifies the connection.
func OpenRedis(ctx context.Context, cfg RedisConfig, opts ...Option) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStore(rdb, opts...), nil
}

// NewRedisStore wraps an existing client. The store owns the client and
// closes it on Close.
func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	o := newOptions(opts)
	return &RedisStore{client: client, key: o.redisKey, capacity: o.capacity}
}

// Record pushes e to the head of the list and trims the tail.
func (s *RedisStore) Record(ctx context.Context, e model.HistoryEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, s.key, raw)
		p.LTrim(ctx, s.key, 0, int64(s.capacity-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *RedisStore) Recent(ctx context.Context, n int) ([]model.HistoryEntry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	vals, err := s.client.LRange(ctx, s.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis recent: %w", err)
	}
	out := make([]model.HistoryEntry, 0, len(vals))
	for _, v := range vals {
		var e model.HistoryEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Count returns the list length.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count: %w", err)
	}
	return int(n), nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
