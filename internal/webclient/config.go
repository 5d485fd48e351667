package webclient

import "time"

type Client string

const (
	ClientNetHTTP Client = "nethttp"
)

// Config selects and tunes the WebClient backend.
type Config struct {
	Client Client `mapstructure:"client"`

	// Timeout caps a single request on the underlying *http.Client. Per-call
	// deadlines from the context still apply and are usually shorter.
	Timeout time.Duration `mapstructure:"timeout"`

	// RequestsPerSecond paces outgoing requests; 0 disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`

	// MaxBodyBytes caps how much of a response body is read; 0 means no cap.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}
