// Package config handles loading pi configuration and resolving the backend
// base URL.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/pi/config.yaml
//   - State:  ~/.local/state/pi/ (diagnostic log)
//
// The base URL is resolved once at startup, in this order: explicit flag,
// PI_API_URL, NEXT_PUBLIC_API_URL, config file, DefaultBaseURL. Values in
// .env.local and .env are loaded into the environment first without
// overriding variables that are already set.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is used when nothing else names a backend.
const DefaultBaseURL = "http://localhost:8000"

// DefaultDateLayout renders metric dates in the metrics table.
const DefaultDateLayout = "2006-01-02"

// Environment variables consulted for the base URL, highest priority first.
var baseURLEnvVars = []string{"PI_API_URL", "NEXT_PUBLIC_API_URL"}

// APIConfig describes how to reach the backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"` // 0 = no timeout
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	DateLayout string `yaml:"date_layout,omitempty"` // Go time layout for metric dates
}

// Config is the top-level configuration for pi.
type Config struct {
	API APIConfig `yaml:"api,omitempty"`
	UI  UIConfig  `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			DateLayout: DefaultDateLayout,
		},
	}
}

// ConfigDir returns the XDG config directory for pi.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "pi")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pi")
}

// StateDir returns the XDG state directory for pi.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "pi")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "pi")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LogPath returns the diagnostic log file used while the TUI owns the screen.
func LogPath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "pi.log")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.UI.DateLayout == "" {
		cfg.UI.DateLayout = DefaultDateLayout
	}
	if cfg.API.Timeout < 0 {
		return cfg, fmt.Errorf("parsing config: negative api.timeout %v", cfg.API.Timeout)
	}

	return cfg, nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// LoadDotEnv loads .env.local and .env from dir into the process
// environment. Missing files are ignored and existing variables win.
func LoadDotEnv(dir string) {
	for _, name := range []string{".env.local", ".env"} {
		_ = godotenv.Load(filepath.Join(dir, name))
	}
}

// ResolveBaseURL picks the backend base URL. flagValue is the command-line
// override and may be empty.
func (c Config) ResolveBaseURL(flagValue string) string {
	candidates := []string{flagValue}
	for _, key := range baseURLEnvVars {
		candidates = append(candidates, os.Getenv(key))
	}
	candidates = append(candidates, c.API.BaseURL, DefaultBaseURL)

	for _, v := range candidates {
		v = strings.TrimSpace(v)
		if v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return DefaultBaseURL
}
