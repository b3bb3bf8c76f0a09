// Package client holds the terminal client: configuration, the HTTP
// API client, and the local mirror of server-side task state.
package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const DefaultServerURL = "http://localhost:5000"

// Config is read from an optional TOML file; missing fields fall back
// to defaults and TASKBOARD_SERVER overrides the server URL.
type Config struct {
	ServerURL string `toml:"server_url"`
	TokenFile string `toml:"token_file"`
}

// DefaultConfigPath is ~/.config/taskboard/config.toml (or the platform
// equivalent of the user config dir).
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "taskboard", "config.toml")
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".taskboard-token")
	}
	return filepath.Join(dir, "taskboard", "token")
}

func setDefaults(cfg *Config) {
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = defaultTokenFile()
	}
}

// LoadConfig reads the TOML file at path when it exists, applies
// defaults and the TASKBOARD_SERVER env override.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if server := os.Getenv("TASKBOARD_SERVER"); server != "" {
		cfg.ServerURL = server
	}

	setDefaults(cfg)
	return cfg, nil
}
