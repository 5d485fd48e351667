package analyzer

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitebots/internal/utils"
	"github.com/raysh454/sitebots/internal/webclient"
)

// Page is the fetched markup of the analyzed URL plus what the rules need
// from the response.
type Page struct {
	URL        string
	BaseURL    string // scheme://host[:port]
	Body       []byte
	Headers    http.Header
	StatusCode int
	LoadTime   time.Duration
	Doc        *goquery.Document
}

// NewPage parses resp's body. rawURL is the URL the caller asked for, which
// may differ from the proxied request URL.
func NewPage(rawURL string, resp *webclient.Response, loadTime time.Duration) (*Page, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response for %s", rawURL)
	}
	u, err := utils.ValidateAbsoluteURL(rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	headers := resp.Headers
	if headers == nil {
		headers = http.Header{}
	}
	return &Page{
		URL:        rawURL,
		BaseURL:    utils.Origin(u),
		Body:       resp.Body,
		Headers:    headers,
		StatusCode: resp.StatusCode,
		LoadTime:   loadTime,
		Doc:        doc,
	}, nil
}

// HTML returns the raw markup.
func (p *Page) HTML() string {
	return string(p.Body)
}

// IsHTTPS reports whether the analyzed URL uses https.
func (p *Page) IsHTTPS() bool {
	return utils.IsHTTPS(p.URL)
}

// attr returns the attribute value or "" when absent.
func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return v
}

// missingAlt counts images whose alt attribute is absent or empty.
func missingAlt(doc *goquery.Document) (images, without int) {
	imgs := doc.Find("img")
	imgs.Each(func(_ int, img *goquery.Selection) {
		if attr(img, "alt") == "" {
			without++
		}
	})
	return imgs.Length(), without
}

func firstText(doc *goquery.Document, selector string) (string, bool) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Text(), true
}

func hasPrefixAny(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
