package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig drives the recipenav CLI: where the collection service
// lives and how the sync engine behaves.
type ClientConfig struct {
	ServerURL       string        `yaml:"server_url"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	PageSize        int           `yaml:"page_size"`
	CredentialsFile string        `yaml:"credentials_file"`
}

// LoadClient reads the optional YAML config file at path, then applies
// RECIPENAV_* environment overrides on top. A missing file is not an error.
func LoadClient(path string) (ClientConfig, error) {
	cfg := ClientConfig{
		ServerURL:    "http://127.0.0.1:8080",
		PollInterval: 5 * time.Second,
		PageSize:     6,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return ClientConfig{}, fmt.Errorf("parse client config %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return ClientConfig{}, fmt.Errorf("read client config %s: %w", path, err)
		}
	}

	cfg.ServerURL = getString("RECIPENAV_SERVER_URL", cfg.ServerURL)
	cfg.PollInterval = getDuration("RECIPENAV_POLL_INTERVAL", cfg.PollInterval)
	cfg.PageSize = getInt("RECIPENAV_PAGE_SIZE", cfg.PageSize)
	cfg.CredentialsFile = getString("RECIPENAV_CREDENTIALS_FILE", cfg.CredentialsFile)

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 6
	}

	return cfg, nil
}
