package analyzer_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/sitebots/internal/analyzer"
	"github.com/raysh454/sitebots/internal/model"
	"github.com/raysh454/sitebots/internal/testutil"
	"github.com/raysh454/sitebots/internal/webclient"
)

func wellFormedHTML() string { return testutil.WellFormedHTML() }

func secureHeaders() http.Header { return testutil.SecureHeaders() }

func newPage(t *testing.T, url, body string, headers http.Header, load time.Duration) *analyzer.Page {
	t.Helper()
	page, err := analyzer.NewPage(url, &webclient.Response{
		Body:       []byte(body),
		Headers:    headers,
		StatusCode: http.StatusOK,
	}, load)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	return page
}

func robotsFetcher(present bool) analyzer.PageFetcher {
	wc := &testutil.DummyWebClient{}
	if present {
		wc.Prefixes = map[string]testutil.DummyResponse{"https://site.test/robots.txt": {Body: "User-agent: *"}}
	}
	return &testutil.DummyPageFetcher{Client: wc}
}

func issueIDs(r *model.CategoryReport) []string {
	ids := make([]string, 0, len(r.Issues))
	for _, is := range r.Issues {
		ids = append(ids, is.ID)
	}
	return ids
}

func findIssue(r *model.CategoryReport, id string) (model.Issue, bool) {
	for _, is := range r.Issues {
		if is.ID == id {
			return is, true
		}
	}
	return model.Issue{}, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestDefault_CategoryOrder(t *testing.T) {
	t.Parallel()
	as := analyzer.Default(nil)
	cats := model.Categories()
	if len(as) != len(cats) {
		t.Fatalf("expected %d analyzers, got %d", len(cats), len(as))
	}
	for i, a := range as {
		if a.Category() != cats[i] {
			t.Errorf("analyzer %d: got %s, want %s", i, a.Category(), cats[i])
		}
	}
}

func TestNewPage_RejectsRelativeURL(t *testing.T) {
	t.Parallel()
	if _, err := analyzer.NewPage("/relative", &webclient.Response{}, 0); err == nil {
		t.Fatal("expected error for relative URL")
	}
}

func TestAllAnalyzers_WellFormedPageScoresPerfect(t *testing.T) {
	t.Parallel()
	page := newPage(t, "https://site.test/", wellFormedHTML(), secureHeaders(), 200*time.Millisecond)

	for _, a := range analyzer.Default(robotsFetcher(true)) {
		r, err := a.Analyze(context.Background(), page)
		if err != nil {
			t.Fatalf("%s: %v", a.Category(), err)
		}
		if r.Score != 100 || r.Status != model.StatusExcellent {
			t.Errorf("%s: expected 100/excellent, got %d/%s issues=%v", a.Category(), r.Score, r.Status, issueIDs(r))
		}
		if len(r.Positives) == 0 {
			t.Errorf("%s: expected positives", a.Category())
		}
	}
}

func TestTechnical_ShortTitleNoDescription(t *testing.T) {
	t.Parallel()
	html := `<html><head><title>` + strings.Repeat("t", 25) + `</title></head><body><h1>x</h1></body></html>`
	page := newPage(t, "https://site.test/", html, nil, 0)

	tech := &analyzer.Technical{Fetcher: robotsFetcher(true)}
	r, err := tech.Analyze(context.Background(), page)
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"tech-1", "tech-2"} {
		is, ok := findIssue(r, id)
		if !ok {
			t.Fatalf("expected %s in %v", id, issueIDs(r))
		}
		if is.Severity != model.SeverityHigh {
			t.Errorf("%s: expected high severity, got %s", id, is.Severity)
		}
		if len(is.AffectedPages) != 1 || is.AffectedPages[0] != "https://site.test/" {
			t.Errorf("%s: unexpected affected pages %v", id, is.AffectedPages)
		}
	}
	if contains(r.Positives, "Title tag present and adequate length") || contains(r.Positives, "Meta description present") {
		t.Errorf("title/meta positives must be absent, got %v", r.Positives)
	}
	if r.Metrics["Title Length"] != "25 chars" || r.Metrics["Meta Description"] != "Missing" {
		t.Errorf("unexpected metrics %v", r.Metrics)
	}
}

func TestTechnical_HeadingsImagesRobotsScheme(t *testing.T) {
	t.Parallel()
	html := `<html><head><title>` + strings.Repeat("x", 40) + `</title>
<meta name="description" content="d"></head>
<body><h1>a</h1><h1>b</h1><img src="a.png"><img src="b.png" alt=""><img src="c.png" alt="c"></body></html>`
	page := newPage(t, "http://site.test/", html, nil, 0)

	r, err := (&analyzer.Technical{Fetcher: robotsFetcher(false)}).Analyze(context.Background(), page)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"tech-4", "tech-5", "tech-6", "tech-7"}
	got := issueIDs(r)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("issues = %v, want %v", got, want)
	}
	if is, _ := findIssue(r, "tech-5"); is.Description != "2 images are missing alt text" {
		t.Errorf("unexpected tech-5 description %q", is.Description)
	}
	if r.Score != 40 || r.Status != model.StatusWarning {
		t.Errorf("expected 40/warning, got %d/%s", r.Score, r.Status)
	}
	if r.Metrics["Images with Alt"] != "1/3" || r.Metrics["H1 Tags"] != "2" {
		t.Errorf("unexpected metrics %v", r.Metrics)
	}
}

func TestTechnical_NilFetcherTreatsRobotsAsMissing(t *testing.T) {
	t.Parallel()
	page := newPage(t, "https://site.test/", wellFormedHTML(), nil, 0)
	r, _ := (&analyzer.Technical{}).Analyze(context.Background(), page)
	if _, ok := findIssue(r, "tech-6"); !ok {
		t.Errorf("expected tech-6, got %v", issueIDs(r))
	}
}

func TestContent_Rules(t *testing.T) {
	t.Parallel()
	html := `<html><head><title>Best Coffee Beans in Town | Shop</title>
<meta name="description" content="Best coffee beans in town, roasted daily."></head>
<body><h1>Coffee</h1><a href="https://site.test/a">a</a><a href="https://elsewhere.test/">x</a><p>short text</p></body></html>`
	page := newPage(t, "https://site.test/", html, nil, 0)

	r, err := (&analyzer.Content{}).Analyze(context.Background(), page)
	if err != nil {
		t.Fatal(err)
	}
	want := "content-1,content-2,content-3,content-4"
	if got := strings.Join(issueIDs(r), ","); got != want {
		t.Fatalf("issues = %s, want %s", got, want)
	}
	if r.Score != 52 {
		t.Errorf("expected 100-4*12=52, got %d", r.Score)
	}
	if r.Metrics["Internal Links"] != "1" || r.Metrics["Readability"] != "Poor" {
		t.Errorf("unexpected metrics %v", r.Metrics)
	}
}

func TestContent_DistinctTitleAndDescription(t *testing.T) {
	t.Parallel()
	page := newPage(t, "https://site.test/", wellFormedHTML(), nil, 0)
	r, _ := (&analyzer.Content{}).Analyze(context.Background(), page)
	if _, ok := findIssue(r, "content-3"); ok {
		t.Error("content-3 should not fire for distinct title and description")
	}
	if !contains(r.Positives, "Good internal linking (3 links)") {
		t.Errorf("unexpected positives %v", r.Positives)
	}
}

func TestPerformance_LoadTimeThresholds(t *testing.T) {
	t.Parallel()
	cases := []struct {
		load   time.Duration
		want   string
		metric string
	}{
		{3500 * time.Millisecond, "perf-1", "3500ms"},
		{2000 * time.Millisecond, "perf-2", "2000ms"},
		{1500 * time.Millisecond, "", "1500ms"},
	}
	for _, tc := range cases {
		page := newPage(t, "https://site.test/", "<html><body></body></html>", nil, tc.load)
		r, _ := (&analyzer.Performance{}).Analyze(context.Background(), page)
		_, p1 := findIssue(r, "perf-1")
		_, p2 := findIssue(r, "perf-2")
		switch tc.want {
		case "perf-1":
			if !p1 || p2 {
				t.Errorf("%v: expected only perf-1, got %v", tc.load, issueIDs(r))
			}
		case "perf-2":
			if p1 || !p2 {
				t.Errorf("%v: expected only perf-2, got %v", tc.load, issueIDs(r))
			}
		default:
			if p1 || p2 {
				t.Errorf("%v: expected no load issue, got %v", tc.load, issueIDs(r))
			}
		}
		if r.Metrics["Load Time"] != tc.metric {
			t.Errorf("%v: Load Time metric %q", tc.load, r.Metrics["Load Time"])
		}
	}
}

func TestPerformance_ImagesResourcesSize(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	b.WriteString(`<html><head>`)
	for i := 0; i < 6; i++ {
		b.WriteString(`<script src="/s.js"></script>`)
	}
	b.WriteString(`</head><body><img src="/a.jpg"><img src="/b.avif"><img>`)
	b.WriteString(strings.Repeat("x", 1_000_001))
	b.WriteString(`</body></html>`)
	page := newPage(t, "https://site.test/", b.String(), nil, 0)

	r, _ := (&analyzer.Performance{}).Analyze(context.Background(), page)
	want := "perf-3,perf-4,perf-5"
	if got := strings.Join(issueIDs(r), ","); got != want {
		t.Fatalf("issues = %s, want %s", got, want)
	}
	if is, _ := findIssue(r, "perf-3"); is.Description != "1 images could be optimized" {
		t.Errorf("unexpected perf-3 description %q", is.Description)
	}
	if r.Metrics["Scripts"] != "6" || r.Metrics["Images"] != "3" {
		t.Errorf("unexpected metrics %v", r.Metrics)
	}
}

func TestMobile_Rules(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		html string
		want string
	}{
		{"no viewport", `<html><body></body></html>`, "mobile-1,mobile-3,mobile-4"},
		{"bad viewport", `<html><head><meta name="viewport" content="initial-scale=1"></head></html>`, "mobile-2,mobile-3,mobile-4"},
		{"responsive", `<html><head><meta name="viewport" content="width=device-width"><link rel="apple-touch-icon" href="i.png"><style>@media screen {a{}} @media print {b{}}</style></head></html>`, ""},
	}
	for _, tt := range tests {
		page := newPage(t, "https://site.test/", tt.html, nil, 0)
		r, _ := (&analyzer.Mobile{}).Analyze(context.Background(), page)
		if got := strings.Join(issueIDs(r), ","); got != tt.want {
			t.Errorf("%s: issues = %s, want %s", tt.name, got, tt.want)
		}
		if tt.want == "" && r.Metrics["Media Queries"] != "2" {
			t.Errorf("%s: expected 2 media queries, got %s", tt.name, r.Metrics["Media Queries"])
		}
	}
}

func TestSecurity_PlainHTTPPage(t *testing.T) {
	t.Parallel()
	page := newPage(t, "http://site.test/", `<html><body><img src="http://cdn.test/a.png"></body></html>`, nil, 0)
	r, _ := (&analyzer.Security{}).Analyze(context.Background(), page)

	is, ok := findIssue(r, "security-1")
	if !ok || is.Severity != model.SeverityHigh {
		t.Fatalf("expected high security-1, got %v", r.Issues)
	}
	if _, ok := findIssue(r, "security-2"); ok {
		t.Error("mixed content only applies to https pages")
	}
	if r.Metrics["HTTPS"] != "Disabled" {
		t.Errorf("unexpected HTTPS metric %q", r.Metrics["HTTPS"])
	}
}

func TestSecurity_MixedContentHeadersForms(t *testing.T) {
	t.Parallel()
	html := `<html><body><script src="http://cdn.test/x.js"></script><a href='http://a.test/'>a</a>
<form action="http://site.test/login"></form><form action="/ok"></form></body></html>`
	h := http.Header{}
	h.Set("X-Frame-Options", "DENY")
	page := newPage(t, "https://site.test/", html, h, 0)

	r, _ := (&analyzer.Security{}).Analyze(context.Background(), page)
	want := "security-2,security-3,security-4"
	if got := strings.Join(issueIDs(r), ","); got != want {
		t.Fatalf("issues = %s, want %s", got, want)
	}
	if is, _ := findIssue(r, "security-2"); is.Description != "3 HTTP resources found on HTTPS page" {
		t.Errorf("unexpected security-2 description %q", is.Description)
	}
	if r.Score != 25 {
		t.Errorf("expected 100-3*25=25, got %d", r.Score)
	}
	if r.Metrics["Security Headers"] != "1/4" || r.Metrics["Secure Forms"] != "No" {
		t.Errorf("unexpected metrics %v", r.Metrics)
	}
}

func TestSecurity_TwoMissingHeadersIsTolerated(t *testing.T) {
	t.Parallel()
	h := http.Header{}
	h.Set("Strict-Transport-Security", "max-age=1")
	h.Set("X-Content-Type-Options", "nosniff")
	page := newPage(t, "https://site.test/", `<html></html>`, h, 0)
	r, _ := (&analyzer.Security{}).Analyze(context.Background(), page)
	if _, ok := findIssue(r, "security-3"); ok {
		t.Error("security-3 requires more than two missing headers")
	}
	if r.Metrics["Secure Forms"] != "N/A" {
		t.Errorf("expected N/A without forms, got %q", r.Metrics["Secure Forms"])
	}
}

func TestAccessibility_Rules(t *testing.T) {
	t.Parallel()
	html := `<html><body>
<h1>a</h1><h3>skipped</h3>
<img src="a.png">
<label for="name">Name</label><input id="name"><input id="email"><textarea aria-label="msg"></textarea><select></select>
</body></html>`
	page := newPage(t, "https://site.test/", html, nil, 0)
	r, _ := (&analyzer.Accessibility{}).Analyze(context.Background(), page)

	want := "a11y-1,a11y-2,a11y-3,a11y-4"
	if got := strings.Join(issueIDs(r), ","); got != want {
		t.Fatalf("issues = %s, want %s", got, want)
	}
	if is, _ := findIssue(r, "a11y-2"); is.Description != "2 form inputs are missing labels" {
		t.Errorf("unexpected a11y-2 description %q", is.Description)
	}
	if r.Metrics["Labeled Inputs"] != "2/4" || r.Metrics["Heading Structure"] != "Issues" {
		t.Errorf("unexpected metrics %v", r.Metrics)
	}
}

func TestAccessibility_HeadingMustStartAtOne(t *testing.T) {
	t.Parallel()
	page := newPage(t, "https://site.test/", `<html><body><h2>x</h2><a href="#c">skip</a></body></html>`, nil, 0)
	r, _ := (&analyzer.Accessibility{}).Analyze(context.Background(), page)
	if _, ok := findIssue(r, "a11y-3"); !ok {
		t.Errorf("a page starting at h2 skips level 1, got %v", issueIDs(r))
	}
	if _, ok := findIssue(r, "a11y-4"); ok {
		t.Error("skip link present, a11y-4 must not fire")
	}
}

func TestScores_AlwaysInRange(t *testing.T) {
	t.Parallel()
	page := newPage(t, "http://site.test/", `<html><body><img><img><form action="http://x"></form><input></body></html>`, nil, 5*time.Second)
	for _, a := range analyzer.Default(robotsFetcher(false)) {
		r, err := a.Analyze(context.Background(), page)
		if err != nil {
			t.Fatalf("%s: %v", a.Category(), err)
		}
		if r.Score < 0 || r.Score > 100 {
			t.Errorf("%s: score %d out of range", a.Category(), r.Score)
		}
		if r.Status != model.StatusFromScore(r.Score) {
			t.Errorf("%s: status %s does not match score %d", a.Category(), r.Status, r.Score)
		}
	}
}
