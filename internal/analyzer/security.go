package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitebots/internal/model"
)

var plainHTTPRefRe = regexp.MustCompile(`http://[^"'\s>]+`)

var securityHeaders = []string{
	"Strict-Transport-Security",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"X-XSS-Protection",
}

// Security checks the scheme, mixed content, response security headers and
// form actions.
type Security struct{}

func (s *Security) Category() model.Category { return model.CategorySecurity }

func (s *Security) Analyze(_ context.Context, page *Page) (*model.CategoryReport, error) {
	doc := page.Doc
	r := newRuleSet(page.URL)
	https := page.IsHTTPS()

	if https {
		r.positive("HTTPS enabled")
	} else {
		r.issue("security-1", model.SeverityHigh,
			"No HTTPS encryption",
			"Website is not using HTTPS",
			"Install SSL certificate and enable HTTPS")
	}

	mixed := len(plainHTTPRefRe.FindAllString(page.HTML(), -1))
	if mixed > 0 && https {
		r.issue("security-2", model.SeverityMedium,
			"Mixed content detected",
			fmt.Sprintf("%d HTTP resources found on HTTPS page", mixed),
			"Update all resources to use HTTPS")
	}

	missing := 0
	for _, h := range securityHeaders {
		if page.Headers.Get(h) == "" {
			missing++
		}
	}
	if missing > 2 {
		r.issue("security-3", model.SeverityMedium,
			"Missing security headers",
			fmt.Sprintf("%d important security headers are missing", missing),
			"Configure security headers (HSTS, X-Frame-Options, etc.)")
	} else {
		r.positive("Security headers configured")
	}

	forms := doc.Find("form")
	insecure := 0
	forms.Each(func(_ int, f *goquery.Selection) {
		if strings.HasPrefix(attr(f, "action"), "http://") {
			insecure++
		}
	})
	if insecure > 0 {
		r.issue("security-4", model.SeverityHigh,
			"Insecure forms detected",
			fmt.Sprintf("%d forms submit to HTTP URLs", insecure),
			"Update form actions to use HTTPS")
	} else if forms.Length() > 0 {
		r.positive("Forms are secure")
	}

	httpsMetric := "Disabled"
	if https {
		httpsMetric = "Enabled"
	}
	formsMetric := "N/A"
	if forms.Length() > 0 {
		formsMetric = "Yes"
		if insecure > 0 {
			formsMetric = "No"
		}
	}

	return r.report(s.Category(), map[string]string{
		"HTTPS":            httpsMetric,
		"Mixed Content":    strconv.Itoa(mixed),
		"Security Headers": fmt.Sprintf("%d/%d", len(securityHeaders)-missing, len(securityHeaders)),
		"Secure Forms":     formsMetric,
	}), nil
}
