package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/server"
)

type serveFlags struct {
	port        int
	routes      []string
	fixturesDir string
	logFile     string
	noPersist   bool
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mock server (foreground)",
	Long: `Start the mock server. Mock routes and the admin API under /admin share
one port. Persisted override selections are replayed on startup.

Send SIGHUP to reload the route files without restarting.`,
	Example: `  # Start with the discovered configuration
  routemock serve

  # Start on another port with an extra route directory
  routemock serve --port 3000 --routes 'more/**/*.yaml'

  # Keep a copy of the logs
  routemock serve --log-file routemock.log`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, &serveFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	serveCmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "HTTP server port")
	serveCmd.Flags().StringSliceVar(&f.routes, "routes", nil, "Route file glob (repeatable, replaces the configured patterns)")
	serveCmd.Flags().StringVar(&f.fixturesDir, "fixtures", "", "Fixture directory")
	serveCmd.Flags().StringVar(&f.logFile, "log-file", "", "Also write logs to this file")
	serveCmd.Flags().BoolVar(&f.noPersist, "no-persist", false, "Do not read or write persisted override selections")
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if len(f.routes) > 0 {
		cfg.Routes = f.routes
	}
	if f.fixturesDir != "" {
		cfg.FixturesDir = f.fixturesDir
	}
	if f.noPersist {
		cfg.Persistence.Enabled = false
	}

	var extra []io.Writer
	if f.logFile != "" {
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = file.Close() }()
		extra = append(extra, file)
	}
	log := newLogger(cfg, cmd.ErrOrStderr(), extra...)

	srv, err := server.New(cfg, server.WithLogger(log), server.WithVersion(Version))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go reloadOnHangup(ctx, srv, log)

	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "routemock listening on %s (%d routes)\n", srv.URL(), srv.Registry().Len())

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func reloadOnHangup(ctx context.Context, srv *server.Server, log *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := srv.Reload(ctx); err != nil {
				log.Error("reload failed", "error", err)
			}
		}
	}
}

// loadConfig loads --config, or the discovered configuration file, or the defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger from the config file, with --log-level and
// --log-format taking precedence.
func newLogger(cfg *config.Config, w io.Writer, extra ...io.Writer) *slog.Logger {
	level, format := cfg.Log.Level, cfg.Log.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(level),
		Format: logging.ParseFormat(format),
		Output: w,
		Extra:  extra,
	})
}
