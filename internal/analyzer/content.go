package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitebots/internal/model"
)

// Content checks text volume, heading count, title/description overlap and
// internal linking.
type Content struct{}

func (c *Content) Category() model.Category { return model.CategoryContent }

func (c *Content) Analyze(_ context.Context, page *Page) (*model.CategoryReport, error) {
	doc := page.Doc
	r := newRuleSet(page.URL)

	words := len(strings.Fields(doc.Find("body").Text()))
	if words < 300 {
		r.issue("content-1", model.SeverityMedium,
			"Low word count",
			fmt.Sprintf("Page has only %d words", words),
			"Add more quality content (aim for 300+ words)")
	} else {
		r.positive(fmt.Sprintf("Good word count (%d words)", words))
	}

	headings := doc.Find("h1, h2, h3, h4, h5, h6").Length()
	if headings < 3 {
		r.issue("content-2", model.SeverityLow,
			"Poor heading structure",
			"Page has insufficient heading structure",
			"Use more headings to structure content (H2, H3, etc.)")
	} else {
		r.positive("Good heading structure")
	}

	title, _ := firstText(doc, "title")
	title = strings.TrimSpace(title)
	desc := strings.TrimSpace(attr(doc.Find(`meta[name="description"]`).First(), "content"))
	if title != "" && desc != "" && strings.Contains(strings.ToLower(title), prefixRunes(strings.ToLower(desc), 20)) {
		r.issue("content-3", model.SeverityLow,
			"Title and meta description too similar",
			"Title and meta description are very similar",
			"Make title and meta description unique and complementary")
	}

	internal := countInternalLinks(doc, page.BaseURL)
	if internal < 3 {
		r.issue("content-4", model.SeverityMedium,
			"Few internal links",
			"Page has very few internal links",
			"Add more internal links to improve site navigation and SEO")
	} else {
		r.positive(fmt.Sprintf("Good internal linking (%d links)", internal))
	}

	readability := "Poor"
	if words > 300 {
		readability = "Good"
	}

	return r.report(c.Category(), map[string]string{
		"Word Count":     strconv.Itoa(words),
		"Headings":       strconv.Itoa(headings),
		"Internal Links": strconv.Itoa(internal),
		"Readability":    readability,
	}), nil
}

// countInternalLinks counts anchors whose href contains the page origin or is
// root-relative or dot-relative.
func countInternalLinks(doc *goquery.Document, origin string) int {
	n := 0
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := attr(a, "href")
		if (origin != "" && strings.Contains(href, origin)) || hasPrefixAny(href, "/", "./", "../") {
			n++
		}
	})
	return n
}

func prefixRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
