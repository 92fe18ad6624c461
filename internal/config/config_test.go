package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := &Config{
		DefaultWorkspace: "work",
		RedisURL:         "redis://localhost:6379/0",
		ProfileCacheTTL:  Duration{time.Minute},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultWorkspace != "work" {
		t.Errorf("DefaultWorkspace = %q, want %q", loaded.DefaultWorkspace, "work")
	}
	if loaded.RedisURL != cfg.RedisURL {
		t.Errorf("RedisURL = %q", loaded.RedisURL)
	}
	if loaded.ProfileCacheTTL.Duration != time.Minute {
		t.Errorf("ProfileCacheTTL = %v, want 1m", loaded.ProfileCacheTTL)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_workspace = \"home\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProfileCacheTTL.Duration != 10*time.Minute {
		t.Errorf("ProfileCacheTTL = %v, want default 10m", cfg.ProfileCacheTTL)
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("profile_cache_ttl = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for bad duration")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.ProfileCacheTTL.Duration != 10*time.Minute {
		t.Errorf("default TTL = %v", cfg.ProfileCacheTTL)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{DefaultWorkspace: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestEnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "LOCAID_REDIS_URL=redis://from-env-file:6379/1\nLOCAID_HTTP_ADDR=127.0.0.1:8080\n"
	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	// Variables already set take precedence over the file.
	t.Setenv(EnvHTTPAddr, "127.0.0.1:9090")
	// t.Setenv restores these on cleanup.
	t.Setenv(EnvRedisURL, "")
	_ = os.Unsetenv(EnvRedisURL)
	t.Setenv(EnvDatabaseURL, "")
	_ = os.Unsetenv(EnvDatabaseURL)

	if err := LoadEnvFile(envPath); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	cfg.DatabaseURL = "postgres://from-config"
	cfg.ApplyEnv()

	if cfg.RedisURL != "redis://from-env-file:6379/1" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.HTTPAddr != "127.0.0.1:9090" {
		t.Errorf("HTTPAddr = %q, want process env value", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL != "postgres://from-config" {
		t.Errorf("DatabaseURL = %q, want config value", cfg.DatabaseURL)
	}
}

func TestAllowedOriginsFromEnv(t *testing.T) {
	t.Setenv(EnvAllowedOrigins, " https://app.locaid.example, ,http://localhost:5173 ")
	cfg := Default()
	cfg.AllowedOrigins = []string{"https://from-config.example"}
	cfg.ApplyEnv()

	want := []string{"https://app.locaid.example", "http://localhost:5173"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %q, want %q", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadEnvFile(missing) error = %v", err)
	}
}
