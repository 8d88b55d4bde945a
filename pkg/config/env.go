package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/getmockd/routemock/pkg/store"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ROUTEMOCK_"

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with ROUTEMOCK_* variables:
//
//	ROUTEMOCK_PORT, ROUTEMOCK_ROUTES (comma separated), ROUTEMOCK_FIXTURES_DIR,
//	ROUTEMOCK_LOG_LEVEL, ROUTEMOCK_LOG_FORMAT,
//	ROUTEMOCK_PERSISTENCE_ENABLED, ROUTEMOCK_PERSISTENCE_BACKEND,
//	ROUTEMOCK_PERSISTENCE_PATH, ROUTEMOCK_PERSISTENCE_DSN,
//	ROUTEMOCK_REDIS_ADDRESS, ROUTEMOCK_REDIS_PASSWORD, ROUTEMOCK_REDIS_DB
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		cfg.Port = port
	}
	if v, ok := get("ROUTES"); ok {
		cfg.Routes = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Routes = append(cfg.Routes, p)
			}
		}
	}
	if v, ok := get("FIXTURES_DIR"); ok {
		cfg.FixturesDir = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := get("PERSISTENCE_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPERSISTENCE_ENABLED: %w", EnvPrefix, err)
		}
		cfg.Persistence.Enabled = enabled
	}
	if v, ok := get("PERSISTENCE_BACKEND"); ok {
		cfg.Persistence.Backend = store.Backend(strings.ToLower(v))
	}
	if v, ok := get("PERSISTENCE_PATH"); ok {
		cfg.Persistence.Path = v
	}
	if v, ok := get("PERSISTENCE_DSN"); ok {
		cfg.Persistence.DSN = v
	}
	if v, ok := get("REDIS_ADDRESS"); ok {
		cfg.Persistence.Redis.Address = v
	}
	if v, ok := get("REDIS_PASSWORD"); ok {
		cfg.Persistence.Redis.Password = v
	}
	if v, ok := get("REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
		cfg.Persistence.Redis.DB = db
	}
	return nil
}
