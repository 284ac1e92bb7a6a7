// Package redis implements a Redis-backed key-value store, for
// deployments where several devices share one tasting log.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv"
)

// Config carries connection settings. Prefix is prepended to every key
// so one Redis database can host several deployments.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Store struct {
	client *redis.Client
	prefix string
}

var _ kv.Backend = (*Store)(nil)
var _ kv.Closer = (*Store)(nil)

// NewStore builds a client for the given address. The connection is
// lazy; a wrong address surfaces on first use.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis store: empty address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{client: client, prefix: cfg.Prefix}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) GetString(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("get %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return v, nil
}

func (s *Store) SetString(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
