package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	ErrTimeout     = errors.New("fetch timeout")
	ErrNetwork     = errors.New("network error")
	ErrFetchFailed = errors.New("fetch failed")
)

// FetchError is returned once every attempt and every proxy has failed.
// errors.Is matches both the Kind sentinel and the wrapped cause.
type FetchError struct {
	Kind     error
	URL      string
	Attempts int
	Timeout  time.Duration
	Err      error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case ErrTimeout:
		return fmt.Sprintf("request timeout: unable to fetch %s within %dms after %d attempts",
			e.URL, e.Timeout.Milliseconds(), e.Attempts)
	case ErrNetwork:
		return fmt.Sprintf("network error: unable to connect to %s after %d attempts with multiple proxies",
			e.URL, e.Attempts)
	default:
		return fmt.Sprintf("fetch failed for %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
	}
}

func (e *FetchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// StatusError reports a response that arrived with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

// classify maps the final direct-fetch error onto the fetch error taxonomy.
func classify(err error) error {
	if err == nil {
		return ErrFetchFailed
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetwork
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return ErrNetwork
	}
	return ErrFetchFailed
}
