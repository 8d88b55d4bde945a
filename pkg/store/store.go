// Package store provides the durable key/value layer that mirrors the
// operator's override selections across restarts.
//
// Values are opaque JSON documents addressed by a logical key. Backends:
//   - memory: process-local, used in tests and when persistence is off
//   - file: a single JSON document written with an atomic rename (pkg/store/file)
//   - sqlite: an embedded SQLite database (pkg/store/sqlite)
//   - redis: a Redis server (pkg/store/redis)
//   - postgres: a PostgreSQL database (pkg/store/postgres)
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Common errors
var (
	ErrNotFound       = errors.New("not found")
	ErrReadOnly       = errors.New("store is read-only")
	ErrNotInitialized = errors.New("store is not initialized")
)

// Backend represents a storage backend type.
type Backend string

const (
	// BackendFile uses a JSON file for storage
	BackendFile Backend = "file"
	// BackendSQLite uses an embedded SQLite database
	BackendSQLite Backend = "sqlite"
	// BackendRedis uses a Redis server
	BackendRedis Backend = "redis"
	// BackendPostgres uses a PostgreSQL database
	BackendPostgres Backend = "postgres"
	// BackendMemory uses in-memory storage (no persistence)
	BackendMemory Backend = "memory"
)

// DefaultDir is the project-local directory holding persisted state.
const DefaultDir = ".routemock"

// Config holds store configuration.
type Config struct {
	// Enabled turns persistence on. A disabled store is never read or written.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Backend specifies the storage backend to use
	Backend Backend `json:"backend" yaml:"backend"`

	// Path is the file (file, sqlite) holding the data.
	// Defaults to .routemock/store.json or .routemock/store.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// DSN is the PostgreSQL connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// Redis configures the redis backend.
	Redis RedisConfig `json:"redis,omitzero" yaml:"redis,omitempty"`

	// ReadOnly prevents any write operations
	ReadOnly bool `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
}

// RedisConfig holds the connection settings of the redis backend.
type RedisConfig struct {
	Address  string `json:"address,omitempty" yaml:"address,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Backend: BackendFile,
	}
}

// ResolvedPath returns Path, or the backend's default file under DefaultDir.
func (c Config) ResolvedPath() string {
	if c.Path != "" {
		return c.Path
	}
	if c.Backend == BackendSQLite {
		return filepath.Join(DefaultDir, "store.db")
	}
	return filepath.Join(DefaultDir, "store.json")
}

// Validate checks that the settings required by the backend are present.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Backend {
	case BackendFile, BackendSQLite, BackendMemory, "":
		return nil
	case BackendRedis:
		return nil
	case BackendPostgres:
		if c.DSN == "" {
			return errors.New("postgres backend requires a dsn")
		}
		return nil
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

// EnsureDir creates the parent directory of path with owner-only permissions.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0700)
}
