package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadClientDefaults(t *testing.T) {
	cfg, err := LoadClient("")
	if err != nil {
		t.Fatalf("load client config: %v", err)
	}

	if cfg.ServerURL != "http://127.0.0.1:8080" {
		t.Fatalf("unexpected default server url %q", cfg.ServerURL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("unexpected default poll interval %v", cfg.PollInterval)
	}
	if cfg.PageSize != 6 {
		t.Fatalf("unexpected default page size %d", cfg.PageSize)
	}
}

func TestLoadClientReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	contents := "server_url: https://recipes.example.com\npoll_interval: 30s\npage_size: 12\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadClient(path)
	if err != nil {
		t.Fatalf("load client config: %v", err)
	}

	if cfg.ServerURL != "https://recipes.example.com" {
		t.Fatalf("unexpected server url %q", cfg.ServerURL)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("unexpected poll interval %v", cfg.PollInterval)
	}
	if cfg.PageSize != 12 {
		t.Fatalf("unexpected page size %d", cfg.PageSize)
	}
}

func TestLoadClientMissingFileIsNotAnError(t *testing.T) {
	cfg, err := LoadClient(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got %v", err)
	}
	if cfg.PageSize != 6 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadClientEnvOverrides(t *testing.T) {
	t.Setenv("RECIPENAV_SERVER_URL", "http://override:9090")
	t.Setenv("RECIPENAV_POLL_INTERVAL", "10s")
	t.Setenv("RECIPENAV_PAGE_SIZE", "3")

	cfg, err := LoadClient("")
	if err != nil {
		t.Fatalf("load client config: %v", err)
	}

	if cfg.ServerURL != "http://override:9090" {
		t.Fatalf("unexpected server url %q", cfg.ServerURL)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("unexpected poll interval %v", cfg.PollInterval)
	}
	if cfg.PageSize != 3 {
		t.Fatalf("unexpected page size %d", cfg.PageSize)
	}
}
