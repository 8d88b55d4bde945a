package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/routemock/pkg/store"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
)

// DiscoveryOrder lists the file names Discover looks for.
var DiscoveryOrder = []string{
	"routemock.yaml",
	"routemock.yml",
	"routemock.json",
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load reads the configuration at path on top of the defaults, applies
// ROUTEMOCK_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.Dir = filepath.Dir(path)
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or the discovered config file when path is
// empty, or the defaults when there is none.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		discovered, ok := Discover(".")
		if !ok {
			cfg := Default()
			if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
				return nil, err
			}
			return cfg, cfg.Validate()
		}
		path = discovered
	}
	return Load(path)
}

// Discover returns the first file of DiscoveryOrder present in dir, or the
// file named by ROUTEMOCK_CONFIG.
func Discover(dir string) (string, bool) {
	if p := os.Getenv("ROUTEMOCK_CONFIG"); p != "" {
		return p, true
	}
	for _, name := range DiscoveryOrder {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Parse decodes a configuration document on top of the defaults. format is
// "json" or "yaml".
func Parse(data []byte, format string) (*Config, error) {
	expanded := []byte(ExpandEnvVars(string(data)))
	cfg := Default()

	if format == "json" {
		if !json.Valid(expanded) {
			return nil, ErrInvalidJSON
		}
		if err := json.Unmarshal(expanded, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return cfg, nil
}

// ExpandEnvVars expands ${VAR_NAME} and ${VAR_NAME:-default} references.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	for i, b := range c.Throttlings {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("throttlings[%d]: name is required", i))
		}
		if b.Values[0] < 0 || b.Values[1] < 0 {
			errs = append(errs, fmt.Errorf("throttlings[%d]: values must not be negative", i))
		}
		if b.Values[0] > b.Values[1] {
			errs = append(errs, fmt.Errorf("throttlings[%d]: min %d is greater than max %d", i, b.Values[0], b.Values[1]))
		}
	}
	for i, p := range c.Proxies {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("proxies[%d]: name is required", i))
		}
		if u, err := url.Parse(p.Host); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("proxies[%d]: host %q is not an absolute URL", i, p.Host))
		}
	}
	if err := c.Persistence.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("persistence: %w", err))
	}
	return errors.Join(errs...)
}

// Resolve returns p relative to the config directory. Absolute paths are
// returned unchanged.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// StoreConfig returns the persistence settings with paths resolved against
// the config directory.
func (c *Config) StoreConfig() store.Config {
	sc := c.Persistence
	sc.Path = c.Resolve(sc.ResolvedPath())
	return sc
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}
