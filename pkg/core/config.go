// pkg/core/config.go
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds pkgdesk configuration
type Config struct {
	DefaultBackend string          `yaml:"default_backend"`
	Backends       []string        `yaml:"backends"` // Enabled backends; empty means every detected one
	Debug          bool            `yaml:"debug"`
	QueryTimeout   time.Duration   `yaml:"query_timeout"`
	OpTimeout      time.Duration   `yaml:"operation_timeout"` // Zero means no limit
	Elevation      ElevationConfig `yaml:"elevation"`
	Flatpak        FlatpakConfig   `yaml:"flatpak"`
	Server         ServerConfig    `yaml:"server"`
	Catalog        CatalogConfig   `yaml:"catalog"`
	Index          IndexConfig     `yaml:"index"`
	Bootstrap      BootstrapConfig `yaml:"bootstrap"`
	CachePath      string          `yaml:"cache_path"`
}

// ElevationConfig selects the privilege escalation helper
type ElevationConfig struct {
	Mode string `yaml:"mode"` // auto, pkexec, sudo, none
	Path string `yaml:"path"` // Optional explicit helper path
}

// FlatpakConfig holds Flatpak-specific configuration
type FlatpakConfig struct {
	Remote string `yaml:"remote"`
	User   bool   `yaml:"user"` // Install per-user instead of system-wide
}

// ServerConfig configures the UI bridge
type ServerConfig struct {
	Listen string `yaml:"listen"`
	UIDir  string `yaml:"ui_dir"`
}

// CatalogConfig configures listing and search
type CatalogConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Match    string        `yaml:"match"` // contains or fuzzy
}

// IndexConfig points at the git repository holding the package registry
type IndexConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch"`
}

// BootstrapConfig drives the one-time initial package check
type BootstrapConfig struct {
	Required []string `yaml:"required"`
	FlagFile string   `yaml:"flag_file"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultBackend: "", // Auto-detect
		QueryTimeout:   60 * time.Second,
		Elevation:      ElevationConfig{Mode: "auto"},
		Flatpak:        FlatpakConfig{Remote: "flathub"},
		Server:         ServerConfig{Listen: "127.0.0.1:8765"},
		Catalog:        CatalogConfig{CacheTTL: 5 * time.Minute, Match: "contains"},
		Index: IndexConfig{
			URL:    "https://github.com/arc-language/pkgdesk",
			Branch: "main",
		},
		Bootstrap: BootstrapConfig{
			Required: []string{"flatpak"},
			FlagFile: getDefaultStatePath("initial-check-done"),
		},
		CachePath: getDefaultCachePath(),
	}
}

// DefaultConfigPath returns the config location, honouring PKGDESK_CONFIG
func DefaultConfigPath() string {
	if path := os.Getenv("PKGDESK_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pkgdesk", "config.yaml")
}

// LoadConfig loads configuration from file. Missing fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return fmt.Errorf("no config path")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks enumerated fields
func (c *Config) Validate() error {
	if c.DefaultBackend != "" {
		if _, err := ParseBackend(c.DefaultBackend); err != nil {
			return fmt.Errorf("default_backend: %w", err)
		}
	}
	for _, name := range c.Backends {
		if _, err := ParseBackend(name); err != nil {
			return fmt.Errorf("backends: %w", err)
		}
	}
	switch c.Catalog.Match {
	case "", "contains", "fuzzy":
	default:
		return fmt.Errorf("catalog.match: unknown mode %q", c.Catalog.Match)
	}
	if c.QueryTimeout < 0 || c.OpTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// EnabledBackends returns the configured backend list, nil meaning all
func (c *Config) EnabledBackends() []BackendType {
	if len(c.Backends) == 0 {
		return nil
	}
	out := make([]BackendType, 0, len(c.Backends))
	for _, name := range c.Backends {
		if b, err := ParseBackend(name); err == nil {
			out = append(out, b)
		}
	}
	return out
}

func getDefaultCachePath() string {
	if path := os.Getenv("XDG_CACHE_HOME"); path != "" {
		return filepath.Join(path, "pkgdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pkgdesk")
	}
	return filepath.Join(home, ".cache", "pkgdesk")
}

func getDefaultStatePath(name string) string {
	if path := os.Getenv("XDG_STATE_HOME"); path != "" {
		return filepath.Join(path, "pkgdesk", name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pkgdesk", name)
	}
	return filepath.Join(home, ".local", "state", "pkgdesk", name)
}
