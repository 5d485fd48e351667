package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/sitebots/internal/aggregator"
	"github.com/raysh454/sitebots/internal/analyzer"
	"github.com/raysh454/sitebots/internal/fetcher"
	"github.com/raysh454/sitebots/internal/logging"
	"github.com/raysh454/sitebots/internal/metrics"
	"github.com/raysh454/sitebots/internal/model"
	"github.com/raysh454/sitebots/internal/tracker"
	"github.com/raysh454/sitebots/internal/utils"
	"github.com/raysh454/sitebots/internal/webclient"
)

// ErrInvalidURL is returned by RunAnalysis before any network activity when
// the input is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

func wrapInvalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidURL, err)
}

// pacing is the per-category fetch timeout and synthetic progress animation.
type pacing struct {
	timeout time.Duration
	step    int
	delay   time.Duration
}

var categoryPacing = map[model.Category]pacing{
	model.CategoryTechnical:     {10 * time.Second, 20, 200 * time.Millisecond},
	model.CategoryContent:       {10 * time.Second, 25, 300 * time.Millisecond},
	model.CategoryPerformance:   {15 * time.Second, 20, 250 * time.Millisecond},
	model.CategoryMobile:        {10 * time.Second, 33, 200 * time.Millisecond},
	model.CategorySecurity:      {10 * time.Second, 25, 300 * time.Millisecond},
	model.CategoryAccessibility: {10 * time.Second, 20, 250 * time.Millisecond},
}

// AnalyzerSet builds the analyzers for one run around that run's fetcher.
type AnalyzerSet func(f analyzer.PageFetcher) []analyzer.Analyzer

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithAnalyzers replaces the default six analyzers.
func WithAnalyzers(set AnalyzerSet) Option {
	return func(o *Orchestrator) { o.analyzers = set }
}

// WithClock overrides time.Now for report timestamps and job retention.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator runs analyses and keeps track of background analysis jobs.
type Orchestrator struct {
	cfg       *Config
	wc        webclient.WebClient
	logger    logging.Logger
	metrics   *metrics.Metrics
	analyzers AnalyzerSet
	now       func() time.Time

	jobsMu sync.Mutex
	jobs   map[string]*Job
}

// NewOrchestrator ties together config, the web client and logger. A nil
// config, logger or metrics bundle falls back to defaults.
func NewOrchestrator(cfg *Config, wc webclient.WebClient, logger logging.Logger, m *metrics.Metrics, opts ...Option) (*Orchestrator, error) {
	if wc == nil {
		return nil, fmt.Errorf("orchestrator: webclient is nil")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if m == nil {
		m = metrics.NewUnregistered()
	}
	o := &Orchestrator{
		cfg:       cfg,
		wc:        wc,
		logger:    logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		metrics:   m,
		analyzers: analyzer.Default,
		now:       time.Now,
		jobs:      make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

type categoryResult struct {
	category model.Category
	report   *model.CategoryReport
	err      error
}

// RunAnalysis validates rawURL, runs every category analyzer concurrently and
// aggregates their reports. sink, when non-nil, receives a full copy of the
// six bot states after every state change.
//
// The only error is ErrInvalidURL. Failures inside a category become a
// degraded report for that category, so a valid URL always yields a
// six-category SiteAnalysis.
func (o *Orchestrator) RunAnalysis(ctx context.Context, rawURL string, sink tracker.Sink) (*model.SiteAnalysis, error) {
	u, err := utils.ValidateAbsoluteURL(rawURL)
	if err != nil {
		o.metrics.AnalysesTotal.WithLabelValues("invalid_url").Inc()
		return nil, wrapInvalid(err)
	}
	target := strings.TrimSpace(rawURL)
	origin := utils.Origin(u)
	start := time.Now()
	log := o.logger.With(logging.Field{Key: "url", Value: target})
	log.Info("analysis started")

	f, err := fetcher.New(o.cfg.Fetcher, o.wc, o.logger, o.metrics)
	if err != nil {
		return nil, fmt.Errorf("creating fetcher: %w", err)
	}
	bots := tracker.New(sink)

	analyzers := o.analyzers(f)
	pending := make([]chan categoryResult, 0, len(analyzers))
	for _, a := range analyzers {
		ch := make(chan categoryResult, 1)
		pending = append(pending, ch)
		go o.runCategory(ctx, bots, f, a, target, origin, ch)
	}

	results := make(map[model.Category]*model.CategoryReport, len(pending))
	failed := 0
	for _, ch := range pending {
		res := <-ch
		results[res.category] = res.report
		if res.err != nil {
			failed++
		}
	}

	analysis := aggregator.Aggregate(target, results, f.CrawledCount(), o.now())

	outcome := "ok"
	if failed > 0 {
		outcome = "degraded"
	}
	o.metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	o.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	log.Info("analysis finished",
		logging.Field{Key: "overall_score", Value: analysis.OverallScore},
		logging.Field{Key: "failed_categories", Value: failed},
		logging.Field{Key: "duration", Value: time.Since(start).String()})
	return analysis, nil
}

// runCategory is one bot's task. It always sends exactly one result. A
// degraded report names origin as its affected page.
func (o *Orchestrator) runCategory(ctx context.Context, bots *tracker.Tracker, f *fetcher.Fetcher, a analyzer.Analyzer, target, origin string, out chan<- categoryResult) {
	cat := a.Category()
	idx := cat.Index()
	res := categoryResult{category: cat}

	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("%s analysis failed: panic: %v", cat.Title(), r)
		}
		if res.err != nil {
			bots.Fail(idx)
			res.report = model.FailedCategoryReport(cat, origin, res.err)
			o.metrics.CategoryFailures.WithLabelValues(string(cat)).Inc()
			o.logger.Warn("category analysis failed",
				logging.Field{Key: "category", Value: string(cat)},
				logging.Field{Key: "url", Value: target},
				logging.Err(res.err))
		}
		out <- res
	}()

	bots.Start(idx)
	report, err := o.analyzeCategory(ctx, bots, f, a, target)
	if err != nil {
		res.err = fmt.Errorf("%s analysis failed: %w", cat.Title(), err)
		return
	}
	res.report = report
	bots.Complete(idx, len(report.Issues)+len(report.Positives))
	o.logger.Debug("category analysis completed",
		logging.Field{Key: "category", Value: string(cat)},
		logging.Field{Key: "score", Value: report.Score})
}

func (o *Orchestrator) analyzeCategory(ctx context.Context, bots *tracker.Tracker, f *fetcher.Fetcher, a analyzer.Analyzer, target string) (*model.CategoryReport, error) {
	cat := a.Category()
	p, ok := categoryPacing[cat]
	if !ok {
		p = pacing{timeout: 10 * time.Second, step: 20}
	}

	start := time.Now()
	resp, err := f.Fetch(ctx, target, p.timeout)
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(start)

	page, err := analyzer.NewPage(target, resp, loadTime)
	if err != nil {
		return nil, err
	}

	delay := time.Duration(float64(p.delay) * o.cfg.Progress.DelayScale)
	for progress := 0; progress <= 100; progress += p.step {
		bots.SetProgress(cat.Index(), progress)
		if err := pause(ctx, delay); err != nil {
			return nil, err
		}
	}

	report, err := a.Analyze(ctx, page)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("analyzer returned no report")
	}
	return report, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
