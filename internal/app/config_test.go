package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/sitebots/internal/fetcher"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sitebots.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Fetcher.MaxAttempts != 3 || cfg.Fetcher.BaseDelay != time.Second {
		t.Errorf("unexpected fetcher defaults %+v", cfg.Fetcher)
	}
	if len(cfg.Fetcher.Proxies) != 3 || cfg.Fetcher.Proxies[0].Format != fetcher.ProxyJSON {
		t.Errorf("unexpected default proxies %+v", cfg.Fetcher.Proxies)
	}
	if cfg.Progress.DelayScale != 1 {
		t.Errorf("expected stock progress pacing, got %v", cfg.Progress.DelayScale)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
fetcher:
  max_attempts: 5
  base_delay: 250ms
  proxies:
    - prefix: "https://proxy.test/?u="
      format: raw
progress:
  delay_scale: 0
server:
  addr: ":9090"
jobs:
  retention: 2m
log:
  level: debug
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Fetcher.MaxAttempts != 5 || cfg.Fetcher.BaseDelay != 250*time.Millisecond {
		t.Errorf("fetcher settings not applied: %+v", cfg.Fetcher)
	}
	if len(cfg.Fetcher.Proxies) != 1 || cfg.Fetcher.Proxies[0].Format != fetcher.ProxyRaw {
		t.Errorf("proxy list not applied: %+v", cfg.Fetcher.Proxies)
	}
	if cfg.Progress.DelayScale != 0 {
		t.Errorf("expected delay scale 0, got %v", cfg.Progress.DelayScale)
	}
	if cfg.Server.Addr != ":9090" || cfg.Jobs.Retention != 2*time.Minute || cfg.Log.Level != "debug" {
		t.Errorf("unexpected config %+v", cfg)
	}
	// untouched sections keep their defaults
	if cfg.Fetcher.UserAgent != fetcher.DefaultUserAgent {
		t.Errorf("expected default user agent, got %q", cfg.Fetcher.UserAgent)
	}
	if cfg.Server.RateLimitBurst != 10 {
		t.Errorf("expected default burst, got %d", cfg.Server.RateLimitBurst)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")
	t.Setenv("SITEBOTS_SERVER_ADDR", ":7070")
	t.Setenv("SITEBOTS_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected env to win, got %q", cfg.Server.Addr)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected warn, got %q", cfg.Log.Level)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("an explicit path that does not exist should fail")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero attempts", "fetcher:\n  max_attempts: 0\n", "max_attempts"},
		{"bad proxy format", "fetcher:\n  proxies:\n    - prefix: \"https://p.test/\"\n      format: xml\n", "unknown format"},
		{"relative proxy", "fetcher:\n  proxies:\n    - prefix: \"/p\"\n      format: raw\n", "proxies[0]"},
		{"negative scale", "progress:\n  delay_scale: -1\n", "delay_scale"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
