package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  access_token_secret: "access-secret-0123456789abcdef0123"
  refresh_token_secret: "refresh-secret-0123456789abcdef012"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("AccessTokenTTL = %v, want 15m", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.RefreshTokenTTL != 10*24*time.Hour {
		t.Fatalf("RefreshTokenTTL = %v, want 240h", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Storage.UploadMaxBytes != 100<<20 {
		t.Fatalf("UploadMaxBytes = %d, want %d", cfg.Storage.UploadMaxBytes, 100<<20)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("Addr() = %q, want %q", cfg.Addr(), "0.0.0.0:8080")
	}
	if cfg.Auth.InsecureCookies {
		t.Fatal("InsecureCookies = true, want Secure cookies unless opted out")
	}
}

func TestLoadRejectsWeakSecrets(t *testing.T) {
	for name, content := range map[string]string{
		"missing": `
auth:
  refresh_token_secret: "refresh-secret-0123456789abcdef012"
`,
		"short": `
auth:
  access_token_secret: "short"
  refresh_token_secret: "refresh-secret-0123456789abcdef012"
`,
		"identical": `
auth:
  access_token_secret: "same-secret-aa0123456789abcdef0123"
  refresh_token_secret: "same-secret-aa0123456789abcdef0123"
`,
	} {
		path := writeConfig(t, content)
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%s config) expected error, got nil", name)
		} else if !strings.Contains(err.Error(), "auth.") {
			t.Errorf("Load(%s config) error = %v, want a secret validation error", name, err)
		}
	}
}

func TestEnvOverridesSecrets(t *testing.T) {
	path := writeConfig(t, `
auth:
  access_token_secret: "file-access-secret-23456789abcdef01"
  refresh_token_secret: "file-refresh-secret-3456789abcdef01"
`)

	t.Setenv("VIDSTREAM_ACCESS_TOKEN_SECRET", "env-access-secret-423456789abcdef01")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.AccessTokenSecret != "env-access-secret-423456789abcdef01" {
		t.Fatalf("AccessTokenSecret = %q, want the env value", cfg.Auth.AccessTokenSecret)
	}
	if cfg.Auth.RefreshTokenSecret != "file-refresh-secret-3456789abcdef01" {
		t.Fatalf("RefreshTokenSecret = %q, want the file value", cfg.Auth.RefreshTokenSecret)
	}
}
