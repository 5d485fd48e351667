package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/raysh454/sitebots/internal/logging"
	"github.com/raysh454/sitebots/internal/metrics"
	"github.com/raysh454/sitebots/internal/utils"
	"github.com/raysh454/sitebots/internal/webclient"
)

// Module: fetcher
// Resolves a URL into a response: direct GET, then the proxy chain, then a
// retry with exponential backoff.
type Fetcher struct {
	cfg     Config
	wc      webclient.WebClient
	logger  logging.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	crawled map[string]struct{}
}

// New creates a Fetcher on top of wc. A nil logger or metrics bundle is
// replaced with a no-op one.
func New(cfg Config, wc webclient.WebClient, logger logging.Logger, m *metrics.Metrics) (*Fetcher, error) {
	if wc == nil {
		return nil, fmt.Errorf("fetcher: webclient is nil")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if m == nil {
		m = metrics.NewUnregistered()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Fetcher{
		cfg:     cfg,
		wc:      wc,
		logger:  logger.With(logging.Field{Key: "component", Value: "fetcher"}),
		metrics: m,
		crawled: make(map[string]struct{}),
	}, nil
}

// Fetch returns the first successful response for target. Each request, direct
// or proxied, gets its own timeout; ctx bounds the whole call including backoff
// pauses. On exhaustion the error is a *FetchError classified from the last
// direct failure.
func (f *Fetcher) Fetch(ctx context.Context, target string, timeout time.Duration) (*webclient.Response, error) {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		attempts = attempt

		resp, err := f.tryDirect(ctx, target, timeout)
		if err == nil {
			f.record(target)
			return resp, nil
		}
		lastErr = err
		f.logger.Debug("direct fetch failed",
			logging.Field{Key: "url", Value: target},
			logging.Field{Key: "attempt", Value: attempt},
			logging.Err(err))

		for i, p := range f.cfg.Proxies {
			if ctx.Err() != nil {
				break
			}
			resp, perr := f.tryProxy(ctx, p, target, timeout)
			if perr == nil {
				f.record(target)
				return resp, nil
			}
			f.logger.Warn("proxy fetch failed",
				logging.Field{Key: "url", Value: target},
				logging.Field{Key: "proxy", Value: i + 1},
				logging.Err(perr))
		}

		if attempt == f.cfg.MaxAttempts || ctx.Err() != nil {
			break
		}

		delay := f.cfg.BaseDelay * time.Duration(1<<(attempt-1))
		f.logger.Info("fetch attempt failed, retrying",
			logging.Field{Key: "url", Value: target},
			logging.Field{Key: "attempt", Value: attempt},
			logging.Field{Key: "delay", Value: delay.String()})
		if err := sleep(ctx, delay); err != nil {
			break
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(lastErr, ctxErr) {
		lastErr = fmt.Errorf("%w (last error: %v)", ctxErr, lastErr)
	}
	return nil, &FetchError{
		Kind:     classify(lastErr),
		URL:      target,
		Attempts: attempts,
		Timeout:  timeout,
		Err:      lastErr,
	}
}

func (f *Fetcher) tryDirect(ctx context.Context, target string, timeout time.Duration) (*webclient.Response, error) {
	reqCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	headers := http.Header{}
	headers.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.wc.Do(reqCtx, &webclient.Request{
		Method:  http.MethodGet,
		URL:     target,
		Headers: headers,
	})
	if err == nil && !resp.OK() {
		err = &StatusError{StatusCode: resp.StatusCode}
	}
	f.count("direct", err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *Fetcher) tryProxy(ctx context.Context, p Proxy, target string, timeout time.Duration) (*webclient.Response, error) {
	reqCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	resp, err := f.wc.Get(reqCtx, p.Prefix+url.QueryEscape(target))
	if err == nil {
		resp, err = unwrapProxyResponse(p.Format, resp)
	}
	f.count("proxy", err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

type envelope struct {
	Contents string `json:"contents"`
	Status   struct {
		HTTPCode int `json:"http_code"`
	} `json:"status"`
}

// unwrapProxyResponse validates a proxied response and, for JSON proxies,
// replaces it with a synthetic 200 response holding the embedded contents.
func unwrapProxyResponse(format ProxyFormat, resp *webclient.Response) (*webclient.Response, error) {
	if !resp.OK() {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	if format != ProxyJSON {
		return resp, nil
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("decode proxy envelope: %w", err)
	}
	if env.Status.HTTPCode != http.StatusOK {
		return nil, &StatusError{StatusCode: env.Status.HTTPCode}
	}
	if env.Contents == "" {
		return nil, errors.New("proxy envelope has empty contents")
	}

	headers := http.Header{}
	headers.Set("Content-Type", "text/html")
	return &webclient.Response{
		Request:    resp.Request,
		Headers:    headers,
		Body:       []byte(env.Contents),
		StatusCode: http.StatusOK,
		FetchedAt:  resp.FetchedAt,
		Elapsed:    resp.Elapsed,
	}, nil
}

func (f *Fetcher) count(strategy string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	f.metrics.FetchAttempts.WithLabelValues(strategy, outcome).Inc()
}

func (f *Fetcher) record(target string) {
	key, err := utils.Canonicalize(target, f.cfg.Canonical)
	if err != nil {
		key = target
	}
	f.mu.Lock()
	f.crawled[key] = struct{}{}
	f.mu.Unlock()
}

// CrawledCount returns the number of distinct URLs this Fetcher has fetched.
// The orchestrator builds one Fetcher per run, so this is a per-run count.
func (f *Fetcher) CrawledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.crawled)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
