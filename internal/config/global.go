package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFile is the config file name under $XDG_CONFIG_HOME/zoia.
	ConfigFile = "config.yaml"
	// ConfigPathEnv overrides the config file location.
	ConfigPathEnv = "ZOIA_CONFIG"
)

// ErrNotConfigured is returned when no library root is configured.
var ErrNotConfigured = errors.New("library_root not configured")

// Path returns the path to the config file.
// Respects ZOIA_CONFIG, then XDG_CONFIG_HOME.
func Path() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return ExpandPath(p)
	}
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFile)
}

// Load reads the config file at Path.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path, applies environment overrides and
// defaults, and validates the result. A missing file is not an error by
// itself; the library root may come from the environment.
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to path atomically, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming config: %w", err)
	}

	success = true
	return nil
}

// HelpfulConfigMessage returns a hint shown when no library is configured.
func HelpfulConfigMessage() string {
	configPath := Path()
	return fmt.Sprintf(`No zoia library is configured.

Create one with:
  zoia init ~/papers

or write %s by hand:
  mkdir -p %s
  echo 'library_root: /path/to/your/library' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
