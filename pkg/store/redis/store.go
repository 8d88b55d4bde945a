// Package redis implements store.Store on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/getmockd/routemock/pkg/store"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "routemock:"

// Store keeps each key as a Redis string under a prefix.
type Store struct {
	cfg    store.Config
	prefix string

	mu  sync.RWMutex
	rdb *redis.Client
}

// New creates a Redis store for cfg. The connection is made by Open.
func New(cfg store.Config) *Store {
	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{cfg: cfg, prefix: prefix}
}

// Enabled reports whether persistence is enabled.
func (s *Store) Enabled() bool { return s.cfg.Enabled }

// Initialized reports whether Open succeeded.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rdb != nil
}

// Open connects and pings the server.
func (s *Store) Open(ctx context.Context) error {
	addr := s.cfg.Redis.Address
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	s.rdb = rdb
	return nil
}

func (s *Store) client() (*redis.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rdb == nil {
		return nil, store.ErrNotInitialized
	}
	return s.rdb, nil
}

// IsEmpty reports whether no key exists under the prefix.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	rdb, err := s.client()
	if err != nil {
		return false, err
	}
	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return false, fmt.Errorf("scan keys: %w", err)
		}
		if len(keys) > 0 {
			return false, nil
		}
		if next == 0 {
			return true, nil
		}
		cursor = next
	}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	rdb, err := s.client()
	if err != nil {
		return nil, err
	}
	v, err := rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return v, nil
}

// Set stores value under key without expiration.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.cfg.ReadOnly {
		return store.ErrReadOnly
	}
	rdb, err := s.client()
	if err != nil {
		return err
	}
	if err := rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rdb == nil {
		return nil
	}
	err := s.rdb.Close()
	s.rdb = nil
	return err
}

var _ store.Store = (*Store)(nil)
