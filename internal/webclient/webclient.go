package webclient

import "context"

// WebClient performs HTTP requests. Implementations must be safe for
// concurrent use; the six analyzer tasks share one client.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is a convenience method for simple GET requests
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}
