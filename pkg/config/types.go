package config

import (
	"fmt"
	"time"

	"github.com/getmockd/routemock/pkg/engine"
	"github.com/getmockd/routemock/pkg/store"
	"github.com/getmockd/routemock/pkg/throttle"
)

// Default values.
const (
	DefaultPort         = 8080
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 2 * time.Minute
	DefaultFixturesDir  = "fixtures"
)

// DefaultRoutePatterns are the route file globs used when none are configured.
var DefaultRoutePatterns = []string{"routes/**/*.{yaml,yml,json}"}

// Config is the server configuration.
type Config struct {
	Port         int      `json:"port" yaml:"port"`
	ReadTimeout  Duration `json:"readTimeout,omitzero" yaml:"readTimeout,omitempty"`
	WriteTimeout Duration `json:"writeTimeout,omitzero" yaml:"writeTimeout,omitempty"`

	// Routes are glob patterns of route files, relative to the config file.
	// ** matches any number of directories.
	Routes []string `json:"routes,omitempty" yaml:"routes,omitempty"`

	// FixturesDir is the directory fixture files are read from.
	FixturesDir string `json:"fixturesDir,omitempty" yaml:"fixturesDir,omitempty"`

	Throttlings []throttle.Band `json:"throttlings" yaml:"throttlings"`
	Proxies     []Proxy         `json:"proxies" yaml:"proxies"`

	Persistence store.Config      `json:"persistence" yaml:"persistence"`
	CORS        engine.CORSConfig `json:"cors" yaml:"cors"`
	Log         LogConfig         `json:"log" yaml:"log"`

	// Dir is the directory relative paths are resolved against.
	// Load sets it to the config file's directory.
	Dir string `json:"-" yaml:"-"`
}

// Proxy is a named upstream target. Forwarding is not performed; proxies
// are reported through the admin API for clients that do it themselves.
type Proxy struct {
	Name string `json:"name" yaml:"name"`
	Host string `json:"host" yaml:"host"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Options is the part of the configuration exposed at runtime.
type Options struct {
	Throttlings []throttle.Band `json:"throttlings"`
	Proxies     []Proxy         `json:"proxies"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		ReadTimeout:  Duration(DefaultReadTimeout),
		WriteTimeout: Duration(DefaultWriteTimeout),
		Routes:       append([]string(nil), DefaultRoutePatterns...),
		FixturesDir:  DefaultFixturesDir,
		Throttlings:  []throttle.Band{},
		Proxies:      []Proxy{},
		Persistence:  store.DefaultConfig(),
		CORS:         engine.DefaultCORSConfig(),
		Log:          LogConfig{Level: "info", Format: "text"},
		Dir:          ".",
	}
}

// Options returns the throttling bands and proxies.
func (c *Config) Options() Options {
	opts := Options{
		Throttlings: append([]throttle.Band{}, c.Throttlings...),
		Proxies:     append([]Proxy{}, c.Proxies...),
	}
	return opts
}

// Address returns the listen address for Port.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Duration is a time.Duration written as a Go duration string ("15s").
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
