package fetcher

import (
	"time"

	"github.com/raysh454/sitebots/internal/utils"
)

// ProxyFormat describes how a proxy wraps the target's body.
type ProxyFormat string

const (
	// ProxyJSON proxies answer with {"contents": "...", "status": {"http_code": 200}}.
	ProxyJSON ProxyFormat = "json"
	// ProxyRaw proxies return the target body unchanged.
	ProxyRaw ProxyFormat = "raw"
)

// Proxy is a fallback endpoint. The query-escaped target URL is appended to
// Prefix.
type Proxy struct {
	Prefix string      `mapstructure:"prefix" json:"prefix"`
	Format ProxyFormat `mapstructure:"format" json:"format"`
}

type Config struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	UserAgent   string        `mapstructure:"user_agent"`
	Proxies     []Proxy       `mapstructure:"proxies"`

	// Canonical decides which URLs count as the same crawled page.
	Canonical utils.CanonicalizeOptions `mapstructure:"canonical"`
}

const DefaultUserAgent = "SEO-Analyzer-Bot/1.0"

func DefaultProxies() []Proxy {
	return []Proxy{
		{Prefix: "https://api.allorigins.win/get?url=", Format: ProxyJSON},
		{Prefix: "https://cors-anywhere.herokuapp.com/", Format: ProxyRaw},
		{Prefix: "https://api.codetabs.com/v1/proxy?quest=", Format: ProxyRaw},
	}
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		UserAgent:   DefaultUserAgent,
		Proxies:     DefaultProxies(),
		Canonical:   utils.CanonicalizeOptions{StripTrailingSlash: true},
	}
}
