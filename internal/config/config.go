// Package config reads server settings from the environment with
// development defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// devTokenSecret is only acceptable outside production.
const devTokenSecret = "dev-secret-do-not-use-in-prod"

// Config holds every runtime setting.
type Config struct {
	Addr           string        // listen address
	Env            string        // "dev" or "prod"
	DataDir        string        // Badger directory; empty means in-memory
	TokenSecret    string        // HMAC signing secret
	TokenTTL       time.Duration // bearer token validity window
	TTSizeMB       int           // per-search transposition table budget
	AllowedOrigins []string      // websocket origin allow-list; empty allows all
}

// FromEnv builds the configuration from CHESSARENA_* environment
// variables. Production refuses the default token secret.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:        getenv("CHESSARENA_ADDR", ":8080"),
		Env:         getenv("CHESSARENA_ENV", "dev"),
		DataDir:     getenv("CHESSARENA_DATA_DIR", "data"),
		TokenSecret: getenv("CHESSARENA_TOKEN_SECRET", devTokenSecret),
		TokenTTL:    24 * time.Hour,
		TTSizeMB:    64,
	}

	if v := os.Getenv("CHESSARENA_TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CHESSARENA_TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = ttl
	}

	if v := os.Getenv("CHESSARENA_TT_SIZE_MB"); v != "" {
		mb, err := strconv.Atoi(v)
		if err != nil || mb <= 0 {
			return nil, fmt.Errorf("CHESSARENA_TT_SIZE_MB: %q is not a positive integer", v)
		}
		cfg.TTSizeMB = mb
	}

	if v := os.Getenv("CHESSARENA_ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	if cfg.Production() && cfg.TokenSecret == devTokenSecret {
		return nil, fmt.Errorf("CHESSARENA_TOKEN_SECRET must be set in production")
	}

	return cfg, nil
}

// Production reports whether the deployment environment is production.
func (c *Config) Production() bool {
	return c.Env == "prod" || c.Env == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
