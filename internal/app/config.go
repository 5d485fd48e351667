package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/raysh454/sitebots/internal/fetcher"
	"github.com/raysh454/sitebots/internal/utils"
	"github.com/raysh454/sitebots/internal/webclient"
)

// ConfigName is the base name viper searches for when no explicit path is
// given (".sitebots.yaml" in the working directory or $HOME).
const ConfigName = ".sitebots"

// EnvPrefix scopes environment overrides, e.g. SITEBOTS_SERVER_ADDR.
const EnvPrefix = "SITEBOTS"

// Config holds the runtime options for the orchestrator and its surfaces.
type Config struct {
	Fetcher   fetcher.Config   `mapstructure:"fetcher"`
	WebClient webclient.Config `mapstructure:"webclient"`
	Progress  ProgressConfig   `mapstructure:"progress"`
	Server    ServerConfig     `mapstructure:"server"`
	Jobs      JobsConfig       `mapstructure:"jobs"`
	Log       LogConfig        `mapstructure:"log"`
}

// ProgressConfig tunes the synthetic per-bot progress animation.
type ProgressConfig struct {
	// DelayScale multiplies every per-step pause. 1 keeps the stock pacing,
	// 0 disables pauses entirely.
	DelayScale float64 `mapstructure:"delay_scale"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`

	// RateLimitRPS and RateLimitBurst bound requests per client IP.
	// A zero RPS disables limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type JobsConfig struct {
	// Retention is how long a finished job stays queryable.
	Retention time.Duration `mapstructure:"retention"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: fetcher.DefaultConfig(),
		WebClient: webclient.Config{
			Client:       webclient.ClientNetHTTP,
			Timeout:      30 * time.Second,
			MaxBodyBytes: 10 << 20,
		},
		Progress: ProgressConfig{
			DelayScale: 1,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Jobs: JobsConfig{
			Retention: 15 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// envKeys lists the scalar settings that can be overridden from the
// environment. Viper only consults env vars for keys it already knows.
var envKeys = []string{
	"fetcher.max_attempts",
	"fetcher.base_delay",
	"fetcher.user_agent",
	"webclient.client",
	"webclient.timeout",
	"webclient.requests_per_second",
	"webclient.burst",
	"webclient.max_body_bytes",
	"progress.delay_scale",
	"server.addr",
	"server.rate_limit_rps",
	"server.rate_limit_burst",
	"jobs.retention",
	"log.level",
}

// LoadConfig layers an optional YAML file and SITEBOTS_* environment
// variables over DefaultConfig. An empty path searches for .sitebots.yaml in
// the working directory and $HOME; a missing file there is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the orchestrator cannot run with.
func (c *Config) Validate() error {
	if c.Fetcher.MaxAttempts < 1 {
		return fmt.Errorf("fetcher.max_attempts must be at least 1, got %d", c.Fetcher.MaxAttempts)
	}
	if c.Fetcher.BaseDelay < 0 {
		return fmt.Errorf("fetcher.base_delay must not be negative")
	}
	for i, p := range c.Fetcher.Proxies {
		if p.Format != fetcher.ProxyJSON && p.Format != fetcher.ProxyRaw {
			return fmt.Errorf("fetcher.proxies[%d]: unknown format %q", i, p.Format)
		}
		if _, err := utils.ValidateAbsoluteURL(p.Prefix); err != nil {
			return fmt.Errorf("fetcher.proxies[%d]: %w", i, err)
		}
	}
	if c.Progress.DelayScale < 0 {
		return fmt.Errorf("progress.delay_scale must not be negative")
	}
	if c.Jobs.Retention < 0 {
		return fmt.Errorf("jobs.retention must not be negative")
	}
	return nil
}
