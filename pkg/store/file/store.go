// Package file provides a file-based implementation of store.Store.
// All keys live in one JSON document that is rewritten with an atomic
// rename on every Set.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/store"
)

// Current data format version for migration support
const dataVersion = 1

// FileStore implements store.Store using a JSON file.
type FileStore struct {
	cfg         store.Config
	path        string
	mu          sync.RWMutex
	data        *storeData
	initialized bool
	log         *slog.Logger
}

// storeData holds all persisted data.
type storeData struct {
	Version   int                        `json:"version"`
	Entries   map[string]json.RawMessage `json:"entries"`
	UpdatedAt int64                      `json:"updatedAt,omitempty"`
}

func newStoreData() *storeData {
	return &storeData{Version: dataVersion, Entries: make(map[string]json.RawMessage)}
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *FileStore) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a new FileStore with the given configuration.
func New(cfg store.Config, opts ...Option) *FileStore {
	fs := &FileStore{
		cfg:  cfg,
		path: cfg.ResolvedPath(),
		data: newStoreData(),
		log:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// Enabled reports whether persistence is enabled.
func (s *FileStore) Enabled() bool { return s.cfg.Enabled }

// Initialized reports whether Open succeeded.
func (s *FileStore) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Path returns the data file path.
func (s *FileStore) Path() string { return s.path }

// Open loads the data file. A missing file starts an empty store.
func (s *FileStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.ReadOnly {
		if err := store.EnsureDir(s.path); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}

	data, err := s.load()
	if err != nil {
		return err
	}
	s.data = data
	s.initialized = true
	s.log.Debug("file store opened", "path", s.path, "keys", len(data.Entries))
	return nil
}

func (s *FileStore) load() (*storeData, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// No data file yet, start fresh
			return newStoreData(), nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return newStoreData(), nil
	}

	var stored storeData
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if stored.Entries == nil {
		stored.Entries = make(map[string]json.RawMessage)
	}
	return &stored, nil
}

// IsEmpty reports whether no key is stored.
func (s *FileStore) IsEmpty(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return false, store.ErrNotInitialized
	}
	return len(s.data.Entries) == 0, nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, store.ErrNotInitialized
	}
	v, ok := s.data.Entries[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores value under key and writes the file.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return errors.New("value is not valid JSON")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return store.ErrNotInitialized
	}
	if s.cfg.ReadOnly {
		return store.ErrReadOnly
	}

	s.data.Entries[key] = append(json.RawMessage(nil), value...)
	s.data.UpdatedAt = time.Now().UnixMilli()
	return s.saveLocked()
}

// saveLocked performs the actual save operation with atomic write.
func (s *FileStore) saveLocked() error {
	// Ensure version is set
	s.data.Version = dataVersion

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tmpFile := s.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmpFile, s.path); err != nil {
		_ = os.Remove(tmpFile) // Clean up temp file on failure
		return err
	}
	return nil
}

// Close releases nothing; every Set is already on disk.
func (s *FileStore) Close() error {
	return nil
}

// Ensure FileStore implements store.Store.
var _ store.Store = (*FileStore)(nil)
