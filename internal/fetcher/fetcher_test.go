package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raysh454/sitebots/internal/fetcher"
	"github.com/raysh454/sitebots/internal/metrics"
	tu "github.com/raysh454/sitebots/internal/testutil"
	"github.com/raysh454/sitebots/internal/webclient"
)

const target = "https://site.test/page"

func testConfig() fetcher.Config {
	cfg := fetcher.DefaultConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.Proxies = []fetcher.Proxy{
		{Prefix: "https://json.proxy/get?url=", Format: fetcher.ProxyJSON},
		{Prefix: "https://raw.proxy/", Format: fetcher.ProxyRaw},
		{Prefix: "https://raw2.proxy/?q=", Format: fetcher.ProxyRaw},
	}
	return cfg
}

func newFetcher(t *testing.T, cfg fetcher.Config, wc webclient.WebClient, m *metrics.Metrics) *fetcher.Fetcher {
	t.Helper()
	f, err := fetcher.New(cfg, wc, &tu.DummyLogger{}, m)
	if err != nil {
		t.Fatalf("fetcher.New: %v", err)
	}
	return f
}

func TestNew_NilWebClient(t *testing.T) {
	t.Parallel()
	if _, err := fetcher.New(testConfig(), nil, nil, nil); err == nil {
		t.Fatal("expected error for nil webclient")
	}
}

func TestFetch_DirectSuccess_SendsUserAgent(t *testing.T) {
	t.Parallel()
	wc := &tu.DummyWebClient{Responses: map[string]tu.DummyResponse{
		target: {Body: "<html></html>"},
	}}
	f := newFetcher(t, testConfig(), wc, nil)

	resp, err := f.Fetch(context.Background(), target, time.Second)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(resp.Body) != "<html></html>" {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if got := wc.Requests[0].Headers.Get("User-Agent"); got != fetcher.DefaultUserAgent {
		t.Errorf("expected user agent %q, got %q", fetcher.DefaultUserAgent, got)
	}
	if n := wc.RequestCount("https://json.proxy"); n != 0 {
		t.Errorf("proxies must not be tried after direct success, got %d requests", n)
	}
	if f.CrawledCount() != 1 {
		t.Errorf("expected 1 crawled page, got %d", f.CrawledCount())
	}
}

func TestFetch_DirectNon2xx_FallsBackToJSONProxy(t *testing.T) {
	t.Parallel()
	wc := &tu.DummyWebClient{
		Responses: map[string]tu.DummyResponse{
			target: {Status: http.StatusForbidden},
		},
		Prefixes: map[string]tu.DummyResponse{
			"https://json.proxy/": {Body: `{"contents":"<p>proxied</p>","status":{"http_code":200}}`},
		},
	}
	f := newFetcher(t, testConfig(), wc, nil)

	resp, err := f.Fetch(context.Background(), target, time.Second)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(resp.Body) != "<p>proxied</p>" || resp.StatusCode != http.StatusOK {
		t.Errorf("expected unwrapped envelope, got %d %q", resp.StatusCode, resp.Body)
	}
	if n := wc.RequestCount("https://raw.proxy/"); n != 0 {
		t.Errorf("later proxies must not be tried after a success, got %d", n)
	}

	proxied := wc.Requests[1].URL
	if !strings.HasSuffix(proxied, url.QueryEscape(target)) {
		t.Errorf("expected query-escaped target in %q", proxied)
	}
}

func TestFetch_JSONEnvelopeFailures_FallThroughToRawProxy(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"embedded 404":   `{"contents":"<p>x</p>","status":{"http_code":404}}`,
		"empty contents": `{"contents":"","status":{"http_code":200}}`,
		"not json":       `<html>`,
	}
	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			wc := &tu.DummyWebClient{Prefixes: map[string]tu.DummyResponse{
				"https://json.proxy/": {Body: body},
				"https://raw.proxy/":  {Body: "raw body"},
			}}
			f := newFetcher(t, testConfig(), wc, nil)

			resp, err := f.Fetch(context.Background(), target, time.Second)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if string(resp.Body) != "raw body" {
				t.Errorf("expected raw proxy body, got %q", resp.Body)
			}
		})
	}
}

func TestFetch_AllFail_ClassifiedAfterThreeAttempts(t *testing.T) {
	t.Parallel()
	wc := &tu.DummyWebClient{}
	m := metrics.NewUnregistered()
	f := newFetcher(t, testConfig(), wc, m)

	_, err := f.Fetch(context.Background(), target, time.Second)
	if err == nil {
		t.Fatal("expected error")
	}

	var fe *fetcher.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", fe.Attempts)
	}
	if !errors.Is(err, fetcher.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("unexpected message %q", err.Error())
	}

	// 3 attempts x (1 direct + 3 proxies)
	if n := len(wc.Requests); n != 12 {
		t.Errorf("expected 12 requests, got %d", n)
	}
	if got := testutil.ToFloat64(m.FetchAttempts.WithLabelValues("direct", "error")); got != 3 {
		t.Errorf("expected 3 failed direct attempts counted, got %v", got)
	}
	if got := testutil.ToFloat64(m.FetchAttempts.WithLabelValues("proxy", "error")); got != 9 {
		t.Errorf("expected 9 failed proxy attempts counted, got %v", got)
	}
	if f.CrawledCount() != 0 {
		t.Errorf("failed fetches must not be counted as crawled")
	}
}

// ctxRecordingClient keeps every request context. Direct requests hang until
// their deadline; proxy requests fail at once.
type ctxRecordingClient struct {
	mu   sync.Mutex
	ctxs []context.Context
}

func (c *ctxRecordingClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	c.mu.Lock()
	c.ctxs = append(c.ctxs, ctx)
	c.mu.Unlock()

	if strings.HasPrefix(req.URL, target) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, tu.ErrConnRefused
}

func (c *ctxRecordingClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return c.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: url})
}

func (c *ctxRecordingClient) Close() error { return nil }

func TestFetch_AllFail_ReleasesEveryRequestContext(t *testing.T) {
	t.Parallel()
	wc := &ctxRecordingClient{}
	f := newFetcher(t, testConfig(), wc, nil)

	_, err := f.Fetch(context.Background(), target, 5*time.Millisecond)
	if !errors.Is(err, fetcher.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Attempts != 3 {
		t.Fatalf("expected a FetchError after 3 attempts, got %v", err)
	}

	wc.mu.Lock()
	defer wc.mu.Unlock()
	if len(wc.ctxs) != 12 {
		t.Fatalf("expected 12 requests, got %d", len(wc.ctxs))
	}
	for i, ctx := range wc.ctxs {
		if ctx.Err() == nil {
			t.Errorf("request %d: context still live after Fetch returned", i)
		}
	}
}

func TestFetch_Timeout_Classified(t *testing.T) {
	t.Parallel()
	wc := &tu.DummyWebClient{Default: &tu.DummyResponse{Delay: time.Second}}
	cfg := testConfig()
	cfg.Proxies = nil
	f := newFetcher(t, cfg, wc, nil)

	start := time.Now()
	_, err := f.Fetch(context.Background(), target, 10*time.Millisecond)
	if !errors.Is(err, fetcher.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the cause to be preserved, got %v", err)
	}
	if !strings.Contains(err.Error(), "within 10ms") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("per-request timeouts should bound the call, took %v", elapsed)
	}
}

func TestFetch_StatusOnly_IsFetchFailed(t *testing.T) {
	t.Parallel()
	wc := &tu.DummyWebClient{Default: &tu.DummyResponse{Status: http.StatusInternalServerError}}
	f := newFetcher(t, testConfig(), wc, nil)

	_, err := f.Fetch(context.Background(), target, time.Second)
	if !errors.Is(err, fetcher.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	var se *fetcher.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected wrapped StatusError 500, got %v", err)
	}
}

func TestFetch_BackoffGrowsExponentially(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Proxies = nil
	cfg.BaseDelay = 20 * time.Millisecond
	f := newFetcher(t, cfg, &tu.DummyWebClient{}, nil)

	start := time.Now()
	_, _ = f.Fetch(context.Background(), target, time.Second)
	// 20ms after attempt 1 + 40ms after attempt 2
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("expected at least 60ms of backoff, got %v", elapsed)
	}
}

func TestFetch_ContextCanceledDuringBackoff(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Proxies = nil
	cfg.BaseDelay = time.Hour
	wc := &tu.DummyWebClient{}
	f := newFetcher(t, cfg, wc, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, target, time.Second)
		done <- err
	}()

	select {
	case err := <-done:
		var fe *fetcher.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected *FetchError, got %v", err)
		}
		if fe.Attempts != 1 {
			t.Errorf("expected to stop after the first attempt, got %d", fe.Attempts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not return after context cancellation")
	}
}

func TestFetch_RecoversOnLaterAttempt(t *testing.T) {
	t.Parallel()
	calls := 0
	wc := &tu.DummyWebClient{Handler: func(req *webclient.Request) (*webclient.Response, error) {
		if req.URL != target {
			return nil, tu.ErrConnRefused
		}
		calls++
		if calls < 3 {
			return nil, tu.ErrConnRefused
		}
		return &webclient.Response{Request: req, StatusCode: 200, Body: []byte("third time")}, nil
	}}
	f := newFetcher(t, testConfig(), wc, nil)

	resp, err := f.Fetch(context.Background(), target, time.Second)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(resp.Body) != "third time" {
		t.Errorf("unexpected body %q", resp.Body)
	}
}

func TestCrawledCount_DistinctCanonicalURLs(t *testing.T) {
	t.Parallel()
	wc := &tu.DummyWebClient{Default: &tu.DummyResponse{Body: "ok"}}
	f := newFetcher(t, testConfig(), wc, nil)

	for _, u := range []string{
		"https://site.test/page",
		"https://SITE.test/page#top",
		"https://site.test/page/",
		"https://site.test/robots.txt",
	} {
		if _, err := f.Fetch(context.Background(), u, time.Second); err != nil {
			t.Fatalf("Fetch(%s): %v", u, err)
		}
	}
	if f.CrawledCount() != 2 {
		t.Errorf("expected 2 distinct pages, got %d", f.CrawledCount())
	}
}
