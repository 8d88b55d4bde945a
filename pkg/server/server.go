// Package server assembles the mock engine, the admin API and the override
// store into one HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/routemock/pkg/admin"
	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/content"
	"github.com/getmockd/routemock/pkg/engine"
	"github.com/getmockd/routemock/pkg/events"
	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/metrics"
	"github.com/getmockd/routemock/pkg/override"
	"github.com/getmockd/routemock/pkg/route"
	"github.com/getmockd/routemock/pkg/store"
	filestore "github.com/getmockd/routemock/pkg/store/file"
	"github.com/getmockd/routemock/pkg/store/postgres"
	"github.com/getmockd/routemock/pkg/store/redis"
	"github.com/getmockd/routemock/pkg/store/sqlite"
	"github.com/getmockd/routemock/pkg/throttle"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// Server serves mock routes and the admin API on one port.
type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	version string

	registry  *route.Registry
	store     store.Store
	overrides *override.Manager
	throttle  *throttle.Controller
	events    *events.Hub
	metrics   *metrics.Metrics
	engine    *engine.Handler
	handler   http.Handler
	files     []string

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
	startTime  time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger. It is handed to every component.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithVersion sets the version reported by the admin API.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithStore replaces the store built from the persistence settings.
func WithStore(st store.Store) Option {
	return func(s *Server) { s.store = st }
}

// New loads the route files named by cfg and wires the components. It
// does not open the store or listen; see Start.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{cfg: cfg, log: logging.Nop(), version: "dev"}
	for _, opt := range opts {
		opt(s)
	}

	routes, files, err := config.LoadRoutes(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}
	s.files = files
	s.registry = route.NewRegistry(routes...)

	if s.store == nil {
		st, err := NewStore(cfg.StoreConfig(), s.log)
		if err != nil {
			return nil, err
		}
		s.store = st
	}

	resolver := content.NewResolver(content.NewFileFixtures(cfg.Resolve(cfg.FixturesDir)))
	s.events = events.NewHub(events.WithLogger(s.log.With("component", "events")))
	s.overrides = override.NewManager(s.registry, resolver,
		override.WithStore(s.store),
		override.WithLogger(s.log.With("component", "overrides")),
	)
	s.metrics = metrics.New()
	s.metrics.SetRoutes(s.registry.Len())
	s.throttle = throttle.New(cfg.Throttlings, throttle.WithObserver(s.metrics.ObserveThrottle))
	s.engine = engine.NewHandler(s.registry, resolver, engine.WithLogger(s.log.With("component", "engine")))

	api := admin.New(s.registry, s.overrides, s.throttle, cfg.Options(),
		admin.WithLogger(s.log.With("component", "admin")),
		admin.WithEvents(s.events),
		admin.WithMetrics(s.metrics),
		admin.WithVersion(s.version),
	)

	mux := http.NewServeMux()
	mux.Handle(admin.Prefix+"/", api.Handler())
	mux.Handle("/", s.metrics.Middleware(s.engine,
		engine.CORS(cfg.CORS, s.engine, s.throttle.Middleware(s.engine))))
	s.handler = mux

	s.log.Debug("routes loaded", "routes", s.registry.Len(), "files", len(files))
	return s, nil
}

// NewStore builds the override store described by cfg. A disabled config
// yields a store that is never read or written.
func NewStore(cfg store.Config, log *slog.Logger) (store.Store, error) {
	if !cfg.Enabled {
		return store.NewDisabled(), nil
	}
	if log == nil {
		log = logging.Nop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case store.BackendFile, "":
		return filestore.New(cfg, filestore.WithLogger(log.With("component", "store"))), nil
	case store.BackendSQLite:
		return sqlite.New(cfg), nil
	case store.BackendRedis:
		return redis.New(cfg), nil
	case store.BackendPostgres:
		return postgres.New(cfg), nil
	case store.BackendMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Handler returns the combined admin and mock handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Registry returns the route table.
func (s *Server) Registry() *route.Registry { return s.registry }

// Overrides returns the override manager.
func (s *Server) Overrides() *override.Manager { return s.overrides }

// Metrics returns the server's metrics.
func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// Events returns the admin event hub.
func (s *Server) Events() *events.Hub { return s.events }

// RouteFiles returns the route files loaded by New or the last Reload.
func (s *Server) RouteFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

// Prepare opens the store and replays persisted override selections.
// Store failures are logged; the server then runs on its in-memory
// selections. Only a done ctx is an error.
func (s *Server) Prepare(ctx context.Context) error {
	if s.store.Enabled() {
		if err := s.store.Open(ctx); err != nil {
			s.log.Warn("override store unavailable, selections will not persist", "error", err)
			return ctx.Err()
		}
	}
	s.replay(ctx)
	return ctx.Err()
}

func (s *Server) replay(ctx context.Context) {
	n, err := s.overrides.ApplyExternalOverrides(ctx)
	if err != nil {
		s.log.Warn("failed to replay persisted overrides", "error", err)
		return
	}
	if n > 0 {
		s.events.Publish(events.TypeOverridesReplayed, map[string]int{"count": n})
	}
}

// Start prepares the server and begins listening on the configured port.
// Port 0 picks a free port; Addr reports it.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}
	if err := s.Prepare(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address(), err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout.Std(),
		WriteTimeout: s.cfg.WriteTimeout.Std(),
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	s.log.Info("routemock started",
		"addr", ln.Addr().String(),
		"routes", s.registry.Len(),
		"persistence", s.store.Enabled(),
	)
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	if strings.HasPrefix(addr, "[::]:") || strings.HasPrefix(addr, "0.0.0.0:") {
		addr = "localhost" + addr[strings.LastIndex(addr, ":"):]
	}
	return "http://" + addr
}

// Reload re-reads the route files and replays persisted selections on top
// of the new table. On error the current table is kept.
func (s *Server) Reload(ctx context.Context) error {
	routes, files, err := config.LoadRoutes(s.cfg)
	if err != nil {
		return fmt.Errorf("failed to reload routes: %w", err)
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()

	s.registry.SetAll(routes)
	s.metrics.SetRoutes(len(routes))
	s.log.Info("routes reloaded", "routes", len(routes), "files", len(files))
	s.replay(ctx)
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return s.store.Close()
	}

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	s.running = false
	s.listener = nil
	s.log.Info("routemock stopped", "uptime", time.Since(s.startTime).Round(time.Second))
	return errors.Join(errs...)
}

// Run starts the server and blocks until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
