// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O.
package testutil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/sitebots/internal/logging"
	"github.com/raysh454/sitebots/internal/model"
	"github.com/raysh454/sitebots/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount returns the number of Error calls so far.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyResponse scripts the answer for one URL.
type DummyResponse struct {
	Status  int
	Body    string
	Headers http.Header
	Err     error
	Delay   time.Duration
}

// ErrConnRefused is a net.Error usable as DummyResponse.Err.
var ErrConnRefused = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

// DummyWebClient implements webclient.WebClient.
// Lookup order: Handler, exact match in Responses, longest matching prefix
// in Prefixes, Default. With none of them set the request fails with
// ErrConnRefused.
type DummyWebClient struct {
	Handler   func(req *webclient.Request) (*webclient.Response, error)
	Responses map[string]DummyResponse
	Prefixes  map[string]DummyResponse
	Default   *DummyResponse

	mu       sync.Mutex
	Requests []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.Handler != nil {
		return d.Handler(req)
	}

	dr, ok := d.lookup(req.URL)
	if !ok {
		return nil, ErrConnRefused
	}
	if dr.Delay > 0 {
		t := time.NewTimer(dr.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if dr.Err != nil {
		return nil, dr.Err
	}
	status := dr.Status
	if status == 0 {
		status = http.StatusOK
	}
	headers := dr.Headers
	if headers == nil {
		headers = http.Header{}
	}
	return &webclient.Response{
		Request:    req,
		Headers:    headers,
		Body:       []byte(dr.Body),
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) lookup(url string) (DummyResponse, bool) {
	if dr, ok := d.Responses[url]; ok {
		return dr, true
	}
	best, found := "", false
	for p := range d.Prefixes {
		if strings.HasPrefix(url, p) && len(p) >= len(best) {
			best, found = p, true
		}
	}
	if found {
		return d.Prefixes[best], true
	}
	if d.Default != nil {
		return *d.Default, true
	}
	return DummyResponse{}, false
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestCount returns how many requests were issued, optionally filtered by
// URL prefix.
func (d *DummyWebClient) RequestCount(prefix string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.Requests {
		if strings.HasPrefix(r.URL, prefix) {
			n++
		}
	}
	return n
}

// ─── Page fetcher ──────────────────────────────────────────────────────

// DummyPageFetcher serves fetches from a DummyWebClient without retries or
// proxies, turning non-2xx answers into errors.
type DummyPageFetcher struct {
	Client *DummyWebClient
}

func (f *DummyPageFetcher) Fetch(ctx context.Context, url string, _ time.Duration) (*webclient.Response, error) {
	resp, err := f.Client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errors.New(http.StatusText(resp.StatusCode))
	}
	return resp, nil
}

// ─── Progress sink ─────────────────────────────────────────────────────

// SnapshotRecorder collects every bot snapshot pushed to it.
type SnapshotRecorder struct {
	mu        sync.Mutex
	Snapshots [][]model.BotState
}

// Sink matches tracker.Sink.
func (r *SnapshotRecorder) Sink(states []model.BotState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Snapshots = append(r.Snapshots, states)
}

// All returns a copy of the recorded snapshots.
func (r *SnapshotRecorder) All() [][]model.BotState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]model.BotState(nil), r.Snapshots...)
}

// Last returns the most recent snapshot or nil.
func (r *SnapshotRecorder) Last() []model.BotState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Snapshots) == 0 {
		return nil
	}
	return r.Snapshots[len(r.Snapshots)-1]
}
