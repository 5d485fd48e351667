package analyzer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitebots/internal/model"
)

// Accessibility checks alt coverage, input labelling, heading hierarchy and
// skip links.
type Accessibility struct{}

func (a *Accessibility) Category() model.Category { return model.CategoryAccessibility }

func (a *Accessibility) Analyze(_ context.Context, page *Page) (*model.CategoryReport, error) {
	doc := page.Doc
	r := newRuleSet(page.URL)

	images, withoutAlt := missingAlt(doc)
	if withoutAlt > 0 {
		r.issue("a11y-1", model.SeverityMedium,
			"Images missing alt text",
			fmt.Sprintf("%d images are missing alt text", withoutAlt),
			"Add descriptive alt text to all images")
	} else if images > 0 {
		r.positive("All images have alt text")
	}

	labelled := map[string]bool{}
	doc.Find("label[for]").Each(func(_ int, l *goquery.Selection) {
		labelled[attr(l, "for")] = true
	})
	inputs := doc.Find("input, textarea, select")
	unlabelled := 0
	inputs.Each(func(_ int, in *goquery.Selection) {
		id := attr(in, "id")
		if (id == "" || !labelled[id]) && attr(in, "aria-label") == "" {
			unlabelled++
		}
	})
	if unlabelled > 0 {
		r.issue("a11y-2", model.SeverityMedium,
			"Form inputs missing labels",
			fmt.Sprintf("%d form inputs are missing labels", unlabelled),
			"Add proper labels or aria-label attributes to form inputs")
	} else if inputs.Length() > 0 {
		r.positive("Form inputs have proper labels")
	}

	headings := doc.Find("h1, h2, h3, h4, h5, h6")
	skipped := headingLevelSkipped(headings)
	if skipped {
		r.issue("a11y-3", model.SeverityLow,
			"Heading hierarchy issues",
			"Heading levels skip numbers (e.g., H1 to H3)",
			"Use proper heading hierarchy (H1, H2, H3, etc.)")
	} else if headings.Length() > 0 {
		r.positive("Proper heading hierarchy")
	}

	skipLinks := doc.Find(`a[href^="#"]`).Length()
	if skipLinks == 0 {
		r.issue("a11y-4", model.SeverityLow,
			"No skip navigation links",
			"Page lacks skip navigation links for keyboard users",
			"Add skip links to main content for better keyboard navigation")
	} else {
		r.positive("Skip navigation links present")
	}

	structure := "Good"
	if skipped {
		structure = "Issues"
	}

	return r.report(a.Category(), map[string]string{
		"Images with Alt":   fmt.Sprintf("%d/%d", images-withoutAlt, images),
		"Labeled Inputs":    fmt.Sprintf("%d/%d", inputs.Length()-unlabelled, inputs.Length()),
		"Heading Structure": structure,
		"Skip Links":        strconv.Itoa(skipLinks),
	}), nil
}

// headingLevelSkipped reports a jump of more than one level between
// consecutive headings in document order, starting from level 0.
func headingLevelSkipped(headings *goquery.Selection) bool {
	skipped := false
	prev := 0
	headings.Each(func(_ int, h *goquery.Selection) {
		name := goquery.NodeName(h)
		if len(name) != 2 {
			return
		}
		level := int(name[1] - '0')
		if level > prev+1 {
			skipped = true
		}
		prev = level
	})
	return skipped
}
