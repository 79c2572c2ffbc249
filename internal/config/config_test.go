package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
jwtSecret: "secret"
geminiAPIKey: "key"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage != "local" {
		t.Fatalf("storage = %q, want local", cfg.Storage)
	}
	if cfg.MaxUploadBytes != 5<<20 {
		t.Fatalf("maxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 5<<20)
	}
	if cfg.UploadDir != "uploads" {
		t.Fatalf("uploadDir = %q", cfg.UploadDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
jwtSecret: "secret"
geminiAPIKey: "key"
`)
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port = %q, want 9090", cfg.Port)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Fatalf("maxUploadBytes = %d, want 1024", cfg.MaxUploadBytes)
	}
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
geminiAPIKey: "key"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "jwtSecret") {
		t.Fatalf("expected jwtSecret error, got %v", err)
	}
}

func TestLoadRejectsUnknownStorage(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
jwtSecret: "secret"
geminiAPIKey: "key"
storage: "ftp"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}

func TestLoadRequiresRedisForRateLimits(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
jwtSecret: "secret"
geminiAPIKey: "key"
loginRateLimitPerMinute: 10
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "redisAddr") {
		t.Fatalf("expected redisAddr error, got %v", err)
	}
}

func TestParseSessionTTL(t *testing.T) {
	if _, err := ParseSessionTTL("banana"); err == nil {
		t.Fatal("expected error for bad duration")
	}
	dur, err := ParseSessionTTL("720h")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if dur.Hours() != 720 {
		t.Fatalf("dur = %v", dur)
	}
	if dur, err := ParseSessionTTL(""); err != nil || dur != 0 {
		t.Fatalf("empty ttl should be zero, got %v %v", dur, err)
	}
}
