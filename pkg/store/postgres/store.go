// Package postgres implements store.Store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/getmockd/routemock/pkg/store"
)

const schema = `CREATE TABLE IF NOT EXISTS routemock_kv (
	key TEXT PRIMARY KEY,
	value JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store keeps keys in the routemock_kv table.
type Store struct {
	cfg store.Config

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// New creates a PostgreSQL store for cfg. The pool is created by Open.
func New(cfg store.Config) *Store {
	return &Store{cfg: cfg}
}

// Enabled reports whether persistence is enabled.
func (s *Store) Enabled() bool { return s.cfg.Enabled }

// Initialized reports whether Open succeeded.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool != nil
}

// Open connects to cfg.DSN and creates the table.
func (s *Store) Open(ctx context.Context) error {
	if s.cfg.DSN == "" {
		return errors.New("postgres dsn is required")
	}

	pool, err := pgxpool.New(ctx, s.cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
	}
	s.pool = pool
	return nil
}

func (s *Store) conn() (*pgxpool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return nil, store.ErrNotInitialized
	}
	return s.pool, nil
}

// IsEmpty reports whether the table has no rows.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	pool, err := s.conn()
	if err != nil {
		return false, err
	}
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM routemock_kv)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("count keys: %w", err)
	}
	return !exists, nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	var value []byte
	err = pool.QueryRow(ctx, `SELECT value::text FROM routemock_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.cfg.ReadOnly {
		return store.ErrReadOnly
	}
	pool, err := s.conn()
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO routemock_kv (key, value, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

var _ store.Store = (*Store)(nil)
