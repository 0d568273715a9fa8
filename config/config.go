// Package config loads the service settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultPath = "config.yaml"

	PathEnv        = "SMARTDASH_CONFIG"
	databaseDSNEnv = "DATABASE_DSN"
	jwtSecretEnv   = "SMARTDASH_JWT_SECRET"
	logLevelEnv    = "SMARTDASH_LOG_LEVEL"
)

// Config is the whole service configuration as read from YAML.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Housing  HousingConfig  `yaml:"housing"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
}

// HTTPConfig configures the listener and upload limits.
type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// TasksConfig locates the task CSV file.
type TasksConfig struct {
	File  string `yaml:"file"`
	Watch bool   `yaml:"watch"`
	// HeartbeatInterval is how often websocket clients get a heartbeat; zero
	// disables it.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// HousingConfig controls the dataset cache and the held-out split.
type HousingConfig struct {
	CacheSize int     `yaml:"cache_size"`
	TestRatio float64 `yaml:"test_ratio"`
	Seed      int64   `yaml:"seed"`
}

// DatabaseConfig selects sqlite3 or postgres for run history.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AuthConfig enables bearer tokens when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Default returns the built-in settings used when no file is given.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:           8080,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			IdleTimeout:    60 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxUploadBytes: 64 << 20,
		},
		Tasks: TasksConfig{
			File:              "tasks.csv",
			Watch:             true,
			HeartbeatInterval: 30 * time.Second,
		},
		Housing: HousingConfig{
			CacheSize: 16,
			TestRatio: 0.2,
			Seed:      42,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			Path:   "data/smartdash.db",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Auth: AuthConfig{
			TokenTTL: 30 * 24 * time.Hour,
		},
	}
}

// ResolvePath picks the -config flag value, then SMARTDASH_CONFIG, then
// config.yaml.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(PathEnv); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads path over the defaults. A missing file yields the defaults;
// a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(jwtSecretEnv); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Log.Level = v
	}
}

// fillDefaults restores defaults for fields a file explicitly zeroed.
func (c *Config) fillDefaults() {
	d := Default()
	if c.HTTP.Port == 0 {
		c.HTTP.Port = d.HTTP.Port
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = d.HTTP.ReadTimeout
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = d.HTTP.WriteTimeout
	}
	if c.HTTP.IdleTimeout <= 0 {
		c.HTTP.IdleTimeout = d.HTTP.IdleTimeout
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = d.HTTP.AllowedOrigins
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = d.HTTP.MaxUploadBytes
	}
	if c.Tasks.File == "" {
		c.Tasks.File = d.Tasks.File
	}
	if c.Housing.CacheSize <= 0 {
		c.Housing.CacheSize = d.Housing.CacheSize
	}
	if c.Housing.TestRatio <= 0 || c.Housing.TestRatio >= 1 {
		c.Housing.TestRatio = d.Housing.TestRatio
	}
	if c.Database.Driver == "" {
		c.Database.Driver = d.Database.Driver
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = d.Auth.TokenTTL
	}
}

// Validate reports the first setting that cannot be served.
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3":
	case "postgres", "postgresql":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	return nil
}

// AuthEnabled reports whether mutating task routes require a token.
func (c *Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}
