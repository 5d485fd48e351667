package analyzer

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitebots/internal/model"
)

const (
	slowLoad     = 3000 * time.Millisecond
	moderateLoad = 1500 * time.Millisecond
	maxPageBytes = 1_000_000
)

// Performance checks load time, image formats, resource counts and page size.
type Performance struct{}

func (p *Performance) Category() model.Category { return model.CategoryPerformance }

func (p *Performance) Analyze(_ context.Context, page *Page) (*model.CategoryReport, error) {
	doc := page.Doc
	r := newRuleSet(page.URL)

	loadMs := page.LoadTime.Round(time.Millisecond).Milliseconds()
	switch {
	case page.LoadTime > slowLoad:
		r.issue("perf-1", model.SeverityHigh,
			"Slow page load time",
			fmt.Sprintf("Page took %dms to load", loadMs),
			"Optimize images, minify CSS/JS, use CDN")
	case page.LoadTime > moderateLoad:
		r.issue("perf-2", model.SeverityMedium,
			"Moderate page load time",
			fmt.Sprintf("Page took %dms to load", loadMs),
			"Consider optimizing resources for faster loading")
	default:
		r.positive(fmt.Sprintf("Fast load time (%dms)", loadMs))
	}

	images := doc.Find("img")
	unoptimized := 0
	images.Each(func(_ int, img *goquery.Selection) {
		src := attr(img, "src")
		if src != "" && !strings.Contains(src, ".webp") && !strings.Contains(src, ".avif") {
			unoptimized++
		}
	})
	if unoptimized > 0 {
		r.issue("perf-3", model.SeverityMedium,
			"Unoptimized images",
			fmt.Sprintf("%d images could be optimized", unoptimized),
			"Use modern image formats (WebP, AVIF) and compress images")
	} else if images.Length() > 0 {
		r.positive("Images appear optimized")
	}

	scripts := doc.Find("script[src]").Length()
	stylesheets := doc.Find(`link[rel="stylesheet"]`).Length()
	if scripts > 5 || stylesheets > 3 {
		r.issue("perf-4", model.SeverityLow,
			"Many external resources",
			"Page loads many external scripts and stylesheets",
			"Combine and minify CSS/JS files")
	} else {
		r.positive("Reasonable number of external resources")
	}

	size := len(page.Body)
	kb := int(math.Round(float64(size) / 1024))
	if size > maxPageBytes {
		r.issue("perf-5", model.SeverityMedium,
			"Large page size",
			fmt.Sprintf("Page size is approximately %dKB", kb),
			"Reduce page size by optimizing content and resources")
	} else {
		r.positive(fmt.Sprintf("Reasonable page size (%dKB)", kb))
	}

	return r.report(p.Category(), map[string]string{
		"Load Time":   fmt.Sprintf("%dms", loadMs),
		"Page Size":   fmt.Sprintf("%dKB", kb),
		"Images":      strconv.Itoa(images.Length()),
		"Scripts":     strconv.Itoa(scripts),
		"Stylesheets": strconv.Itoa(stylesheets),
	}), nil
}
