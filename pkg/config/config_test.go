package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UI.DateLayout != DefaultDateLayout {
		t.Errorf("expected default date layout %q, got %q", DefaultDateLayout, cfg.UI.DateLayout)
	}
	if cfg.API.Timeout != 0 {
		t.Errorf("expected no timeout by default, got %v", cfg.API.Timeout)
	}
	if cfg.API.BaseURL != "" {
		t.Errorf("expected empty base URL, got %q", cfg.API.BaseURL)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.UI.DateLayout != DefaultDateLayout {
		t.Errorf("expected default config, got layout %q", cfg.UI.DateLayout)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
api:
  base_url: https://intel.example.com/
  timeout: 15s
ui:
  date_layout: 02 Jan 2006
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "https://intel.example.com/" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.UI.DateLayout != "02 Jan 2006" {
		t.Errorf("unexpected date layout %q", cfg.UI.DateLayout)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error for invalid YAML")
	}
}

func TestLoadFrom_NegativeTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  timeout: -1s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://api.internal:9000"

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("round trip lost base url: %q", got.API.BaseURL)
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")

	if got := ConfigPath(); got != filepath.Join("/tmp/cfg", "pi", "config.yaml") {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := LogPath(); got != filepath.Join("/tmp/state", "pi", "pi.log") {
		t.Errorf("LogPath = %q", got)
	}
}

func TestResolveBaseURL_Precedence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://from-config:1"

	tests := []struct {
		name      string
		flag      string
		piEnv     string
		nextEnv   string
		useConfig bool
		want      string
	}{
		{"flag wins", "http://flag:1/", "http://pi-env:1", "http://next:1", true, "http://flag:1"},
		{"pi env", "", "http://pi-env:1", "http://next:1", true, "http://pi-env:1"},
		{"next env", "", "", "http://next:1", true, "http://next:1"},
		{"config", "", "", "", true, "http://from-config:1"},
		{"fallback", "", "", "", false, DefaultBaseURL},
		{"blank flag ignored", "   ", "", "", false, DefaultBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PI_API_URL", tt.piEnv)
			t.Setenv("NEXT_PUBLIC_API_URL", tt.nextEnv)
			c := cfg
			if !tt.useConfig {
				c = DefaultConfig()
			}
			if got := c.ResolveBaseURL(tt.flag); got != tt.want {
				t.Errorf("ResolveBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte("PI_API_URL=http://dotenv-local:1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PI_API_URL=http://dotenv:1\nPI_TEST_EXTRA=yes\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PI_API_URL", "")
	os.Unsetenv("PI_API_URL")
	t.Setenv("PI_TEST_EXTRA", "")
	os.Unsetenv("PI_TEST_EXTRA")

	LoadDotEnv(dir)

	if got := os.Getenv("PI_API_URL"); got != "http://dotenv-local:1" {
		t.Errorf(".env.local should win over .env, got %q", got)
	}
	if got := os.Getenv("PI_TEST_EXTRA"); got != "yes" {
		t.Errorf("expected PI_TEST_EXTRA from .env, got %q", got)
	}
}
