package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the prometheus collectors used by sitebots.
type Metrics struct {
	FetchAttempts      *prometheus.CounterVec
	AnalysesTotal      *prometheus.CounterVec
	CategoryFailures   *prometheus.CounterVec
	AnalysisDuration   prometheus.Histogram
	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	RateLimitDropped   prometheus.Counter
}

func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitebots_fetch_attempts_total",
			Help: "Page fetch attempts by strategy (direct, proxy) and outcome.",
		}, []string{"strategy", "outcome"}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitebots_analyses_total",
			Help: "Analysis runs by outcome (ok, degraded, invalid_url).",
		}, []string{"outcome"}),
		CategoryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitebots_category_failures_total",
			Help: "Category analyzer tasks that ended in error.",
		}, []string{"category"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitebots_analysis_duration_seconds",
			Help:    "Wall time of a full six-category analysis run.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitebots_http_requests_total",
			Help: "Total number of API HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitebots_http_request_duration_seconds",
			Help:    "API request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitebots_ratelimit_dropped_total",
			Help: "Total number of API requests dropped by the rate limiter.",
		}),
	}

	if registry != nil {
		registry.MustRegister(
			m.FetchAttempts,
			m.AnalysesTotal,
			m.CategoryFailures,
			m.AnalysisDuration,
			m.RequestsTotal,
			m.RequestDurationSec,
			m.RateLimitDropped,
		)
	}

	return m
}

// NewUnregistered returns collectors that are never exported. Used by tests
// and library callers that do not serve /metrics.
func NewUnregistered() *Metrics {
	return New(nil)
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

// normalizeRoute keeps label cardinality bounded; job ids are collapsed.
func normalizeRoute(path string) string {
	switch {
	case path == "/analyses":
		return "/analyses"
	case strings.HasPrefix(path, "/analyses/"):
		return "/analyses/{id}"
	case path == "/ws/analyses":
		return "/ws/analyses"
	case path == "/healthz", path == "/metrics":
		return path
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack passes websocket upgrades through the wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
