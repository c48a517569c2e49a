package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: \"9090\"\n")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Submission.TxTimeout != 10*time.Second {
		t.Fatalf("tx timeout = %s, want 10s", cfg.Submission.TxTimeout)
	}
	if cfg.Submission.EnforceRequired {
		t.Fatal("enforce_required should default to false")
	}
	if cfg.Cache.SnapshotTTL != 30*time.Second {
		t.Fatalf("snapshot ttl = %s, want 30s", cfg.Cache.SnapshotTTL)
	}
	if cfg.Database.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("conn max lifetime = %s, want 30m", cfg.Database.ConnMaxLifetime)
	}
	if cfg.FilePath == "" {
		t.Fatal("expected config file path to be recorded")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, "database:\n  host: from-file\n")
	t.Setenv("DATABASE_HOST", "from-env")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Database.Host != "from-env" {
		t.Fatalf("database host = %q, want from-env", cfg.Database.Host)
	}
	if cfg.JWT.Secret != "s3cret" {
		t.Fatalf("jwt secret = %q, want s3cret", cfg.JWT.Secret)
	}
}

func TestLoadConfigReleaseRequiresLongSecret(t *testing.T) {
	dir := writeConfig(t, "server:\n  mode: release\njwt:\n  secret: short\n")

	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for short JWT secret in release mode")
	}
}

func TestLoadConfigRejectsNonPositiveTimeout(t *testing.T) {
	dir := writeConfig(t, "submission:\n  tx_timeout: 0s\n")

	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for zero tx_timeout")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("expected error when config.yaml is missing")
	}
}
