package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/raysh454/sitebots/internal/model"
)

var mediaQueryRe = regexp.MustCompile(`@media[^{]+\{`)

// Mobile checks viewport configuration, media queries, interactive elements
// and touch icons.
type Mobile struct{}

func (m *Mobile) Category() model.Category { return model.CategoryMobile }

func (m *Mobile) Analyze(_ context.Context, page *Page) (*model.CategoryReport, error) {
	doc := page.Doc
	r := newRuleSet(page.URL)

	viewport := doc.Find(`meta[name="viewport"]`).First()
	if viewport.Length() == 0 {
		r.issue("mobile-1", model.SeverityHigh,
			"Missing viewport meta tag",
			"Page is missing viewport meta tag for mobile optimization",
			`Add <meta name="viewport" content="width=device-width, initial-scale=1">`)
	} else if !strings.Contains(attr(viewport, "content"), "width=device-width") {
		r.issue("mobile-2", model.SeverityMedium,
			"Incorrect viewport configuration",
			"Viewport meta tag is not properly configured",
			"Set viewport to width=device-width, initial-scale=1")
	} else {
		r.positive("Proper viewport meta tag")
	}

	mediaQueries := len(mediaQueryRe.FindAllString(page.HTML(), -1))
	if mediaQueries == 0 {
		r.issue("mobile-3", model.SeverityMedium,
			"No responsive design detected",
			"No CSS media queries found for responsive design",
			"Implement responsive design with CSS media queries")
	} else {
		r.positive(fmt.Sprintf("Responsive design detected (%d media queries)", mediaQueries))
	}

	touch := doc.Find(`button, input[type="button"], input[type="submit"]`).Length() + doc.Find("a").Length()
	if touch > 0 {
		r.positive("Interactive elements present")
	}

	icon := doc.Find(`link[rel="apple-touch-icon"]`).Length() > 0
	if !icon {
		r.issue("mobile-4", model.SeverityLow,
			"Missing mobile icons",
			"No Apple touch icon found",
			"Add apple-touch-icon for better mobile experience")
	} else {
		r.positive("Mobile icons configured")
	}

	viewportMetric := "Missing"
	if viewport.Length() > 0 {
		viewportMetric = "Configured"
	}
	iconMetric := "Missing"
	if icon {
		iconMetric = "Present"
	}

	return r.report(m.Category(), map[string]string{
		"Viewport":       viewportMetric,
		"Media Queries":  strconv.Itoa(mediaQueries),
		"Touch Elements": strconv.Itoa(touch),
		"Mobile Icons":   iconMetric,
	}), nil
}
