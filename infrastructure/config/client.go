package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig configures the nexus CLI and the client core
type ClientConfig struct {
	ServerURL           string        `yaml:"server_url"`
	Token               string        `yaml:"token"`
	Timeout             time.Duration `yaml:"timeout"`
	AllowBareHighlights bool          `yaml:"allow_bare_highlights"`
	LogLevel            string        `yaml:"log_level"`
}

// DefaultClientConfig returns the settings used when no file exists
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ServerURL: "http://localhost:8000",
		Timeout:   30 * time.Second,
		LogLevel:  "warn",
	}
}

// LoadClientConfig reads the YAML file at path, then applies NEXUS_* overrides.
// A missing file is not an error; an empty path skips the file.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read client config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse client config %s: %w", path, err)
			}
		}
	}

	cfg.ServerURL = getEnv("NEXUS_SERVER_URL", cfg.ServerURL)
	cfg.Token = getEnv("NEXUS_TOKEN", cfg.Token)
	cfg.Timeout = getEnvDuration("NEXUS_TIMEOUT", cfg.Timeout)
	cfg.LogLevel = getEnv("NEXUS_LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the client settings
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server_url must be an absolute URL, got %q", c.ServerURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
