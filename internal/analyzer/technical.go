package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/raysh454/sitebots/internal/model"
)

// Technical checks title, meta description, headings, alt text, robots.txt
// and the URL scheme.
type Technical struct {
	Fetcher       PageFetcher
	RobotsTimeout time.Duration
}

func (t *Technical) Category() model.Category { return model.CategoryTechnical }

func (t *Technical) Analyze(ctx context.Context, page *Page) (*model.CategoryReport, error) {
	doc := page.Doc
	r := newRuleSet(page.URL)

	title, hasTitle := firstText(doc, "title")
	titleLen := utf8.RuneCountInString(strings.TrimSpace(title))
	if !hasTitle || title == "" || titleLen < 30 {
		r.issue("tech-1", model.SeverityHigh,
			"Title tag missing or too short",
			"Page title is missing or shorter than 30 characters",
			"Add a descriptive title between 30-60 characters")
	} else {
		r.positive("Title tag present and adequate length")
	}

	description := attr(doc.Find(`meta[name="description"]`).First(), "content")
	if description == "" {
		r.issue("tech-2", model.SeverityHigh,
			"Meta description missing",
			"Page is missing meta description",
			"Add a compelling meta description between 150-160 characters")
	} else {
		r.positive("Meta description present")
	}

	h1 := doc.Find("h1").Length()
	switch {
	case h1 == 0:
		r.issue("tech-3", model.SeverityMedium,
			"Missing H1 tag",
			"Page is missing H1 heading tag",
			"Add a single H1 tag with main page topic")
	case h1 > 1:
		r.issue("tech-4", model.SeverityMedium,
			"Multiple H1 tags",
			"Page has multiple H1 tags",
			"Use only one H1 tag per page")
	default:
		r.positive("Proper H1 tag structure")
	}

	images, withoutAlt := missingAlt(doc)
	if withoutAlt > 0 {
		r.issue("tech-5", model.SeverityMedium,
			"Images missing alt text",
			fmt.Sprintf("%d images are missing alt text", withoutAlt),
			"Add descriptive alt text to all images")
	} else if images > 0 {
		r.positive("All images have alt text")
	}

	if t.robotsReachable(ctx, page.BaseURL) {
		r.positive("Robots.txt file present")
	} else {
		r.issue("tech-6", model.SeverityLow,
			"Robots.txt missing",
			"No robots.txt file found",
			"Create a robots.txt file to guide search engine crawlers")
	}

	if page.IsHTTPS() {
		r.positive("SSL certificate installed")
	} else {
		r.issue("tech-7", model.SeverityHigh,
			"No SSL certificate",
			"Website is not using HTTPS",
			"Install SSL certificate and redirect HTTP to HTTPS")
	}

	titleMetric := "Missing"
	if title != "" {
		titleMetric = fmt.Sprintf("%d chars", titleLen)
	}
	descMetric := "Missing"
	if description != "" {
		descMetric = "Present"
	}

	return r.report(t.Category(), map[string]string{
		"Title Length":     titleMetric,
		"Meta Description": descMetric,
		"H1 Tags":          strconv.Itoa(h1),
		"Images":           strconv.Itoa(images),
		"Images with Alt":  fmt.Sprintf("%d/%d", images-withoutAlt, images),
	}), nil
}

// robotsReachable treats a fetch error or a non-2xx answer as missing.
func (t *Technical) robotsReachable(ctx context.Context, baseURL string) bool {
	if t.Fetcher == nil {
		return false
	}
	timeout := t.RobotsTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	resp, err := t.Fetcher.Fetch(ctx, baseURL+"/robots.txt", timeout)
	return err == nil && resp.OK()
}
