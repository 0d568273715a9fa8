package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8080 || cfg.Tasks.File != "tasks.csv" || cfg.Housing.Seed != 42 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.AuthEnabled() {
		t.Fatal("auth must be off by default")
	}
}

func TestLoadOverridesAndDurations(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  read_timeout: 5s
  allowed_origins: ["http://localhost:3000"]
tasks:
  file: /tmp/my-tasks.csv
  watch: false
database:
  driver: sqlite3
  path: /tmp/history.db
log:
  level: debug
auth:
  jwt_secret: s3cret
  token_ttl: 1h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Fatalf("http section not applied: %+v", cfg.HTTP)
	}
	if cfg.HTTP.WriteTimeout != 60*time.Second {
		t.Fatalf("unset field lost its default: %v", cfg.HTTP.WriteTimeout)
	}
	if cfg.Tasks.File != "/tmp/my-tasks.csv" || cfg.Tasks.Watch {
		t.Fatalf("tasks section not applied: %+v", cfg.Tasks)
	}
	if !cfg.AuthEnabled() || cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("auth section not applied: %+v", cfg.Auth)
	}
	if cfg.Housing.TestRatio != 0.2 {
		t.Fatalf("housing default lost: %+v", cfg.Housing)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SMARTDASH_JWT_SECRET", "from-env")
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost/db?sslmode=disable")
	path := writeConfig(t, "database:\n  driver: postgres\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Database.DSN == "" {
		t.Fatal("dsn override not applied")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "http: [port"},
		{"bad driver", "database:\n  driver: mysql\n"},
		{"postgres without dsn", "database:\n  driver: postgres\n"},
		{"port out of range", "http:\n  port: 70000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(PathEnv, "")
	if got := ResolvePath(""); got != DefaultPath {
		t.Fatalf("ResolvePath() = %q", got)
	}
	t.Setenv(PathEnv, "/etc/smartdash.yaml")
	if got := ResolvePath(""); got != "/etc/smartdash.yaml" {
		t.Fatalf("env not used: %q", got)
	}
	if got := ResolvePath("flag.yaml"); got != "flag.yaml" {
		t.Fatalf("flag not preferred: %q", got)
	}
}
