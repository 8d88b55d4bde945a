package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// DefaultAdminURL is the admin API base URL used when none is configured.
const DefaultAdminURL = "http://localhost:8080"

var (
	// Persistent flags available to all subcommands
	configFile string
	adminURL   string
	jsonOutput bool
	logLevel   string
	logFormat  string
	envFile    string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "routemock",
	Short: "routemock serves mock HTTP routes with switchable response overrides",
	Long: `routemock serves mock HTTP routes declared in route files and lets you
switch, at runtime, which named response variant (override) each route
method returns. Latency can be simulated with named throttling bands.

Configuration is read from --config, $ROUTEMOCK_CONFIG, or routemock.yaml,
routemock.yml or routemock.json in the working directory. A .env file in the
working directory is loaded before anything else.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		if !cmd.Flags().Changed("admin-url") {
			if v := os.Getenv("ROUTEMOCK_ADMIN_URL"); v != "" {
				adminURL = v
			}
		}
		return nil
	},
}

// Main runs the command line and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(Main())
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing default .env is not an error.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Path to the configuration file")
	pf.StringVar(&adminURL, "admin-url", DefaultAdminURL, "Admin API base URL of a running server")
	pf.BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "Log format (text, json)")
	pf.StringVar(&envFile, "env-file", "", "Load environment variables from this file instead of .env")
}
