// Package config loads ~/.locaid/config.toml and applies environment
// overrides, optionally read from a workspace .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvWorkspace   = "LOCAID_WORKSPACE"
	EnvDatabaseURL = "LOCAID_DATABASE_URL"
	EnvRedisURL    = "LOCAID_REDIS_URL"
	EnvHTTPAddr    = "LOCAID_HTTP_ADDR"
	// EnvAllowedOrigins is a comma-separated list.
	EnvAllowedOrigins = "LOCAID_ALLOWED_ORIGINS"
)

const defaultProfileCacheTTL = 10 * time.Minute

// Duration is a time.Duration written as a string such as "10m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents the global ~/.locaid/config.toml.
type Config struct {
	DefaultWorkspace string `toml:"default_workspace"`
	// DatabaseURL selects Postgres when set; empty means the workspace's
	// SQLite file.
	DatabaseURL     string   `toml:"database_url"`
	RedisURL        string   `toml:"redis_url"`
	ProfileCacheTTL Duration `toml:"profile_cache_ttl"`
	HTTPAddr        string   `toml:"http_addr"`
	// AllowedOrigins lists browser origins, besides the gateway's own host,
	// that may open realtime websockets.
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{ProfileCacheTTL: Duration{defaultProfileCacheTTL}}
}

// Load reads config from the given path on top of Default. Returns error if
// the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when the file does not
// exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// LoadEnvFile loads variables from a .env file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides cfg with the LOCAID_* environment variables that are
// set.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvDatabaseURL); ok {
		c.DatabaseURL = v
	}
	if v, ok := os.LookupEnv(EnvRedisURL); ok {
		c.RedisURL = v
	}
	if v, ok := os.LookupEnv(EnvHTTPAddr); ok {
		c.HTTPAddr = v
	}
	if v, ok := os.LookupEnv(EnvAllowedOrigins); ok {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
}
