package demoserver

import "strings"

// PageVersion is one rendition of a page: its HTML and response headers.
type PageVersion struct {
	Label       string
	HTML        string
	ContentType string
	Headers     map[string]string
}

// PageDefinition holds all versions of a single page.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion
}

// Page versions shared by every page.
const (
	VersionOptimized = 1
	VersionBare      = 2
	VersionRegressed = 3
)

// GetAllPages returns all demo page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getHomePage(),
		getBlogPage(),
	}
}

var secureHeaders = map[string]string{
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"X-Frame-Options":           "DENY",
	"X-Content-Type-Options":    "nosniff",
	"X-XSS-Protection":          "1; mode=block",
}

func filler(n int) string {
	return strings.TrimSpace(strings.Repeat("Bots read every word of this paragraph. ", n))
}

func getHomePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Landing page that can be switched between good and bad SEO",
		Versions: map[int]PageVersion{
			VersionOptimized: {
				Label:   "optimized",
				Headers: secureHeaders,
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Demo Site - Handmade furniture for small homes</title>
    <meta name="description" content="Browse compact tables, shelves and chairs built to order in our workshop.">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link rel="apple-touch-icon" href="/static/icon.png">
    <style>@media (max-width: 600px) { nav { display: block } }</style>
</head>
<body>
    <a href="#main">Skip to content</a>
    <h1>Handmade furniture</h1>
    <nav>
        <a href="/blog">Blog</a>
        <a href="./about">About</a>
        <a href="/contact">Contact</a>
    </nav>
    <main id="main">
        <h2>Our workshop</h2>
        <h3>Materials</h3>
        <img src="/static/workshop.webp" alt="The workshop bench">
        <p>` + filler(50) + `</p>
        <form action="/search">
            <label for="q">Search</label>
            <input id="q" type="text">
            <input type="submit" aria-label="Search the catalogue">
        </form>
    </main>
</body>
</html>`,
			},
			VersionBare: {
				Label: "bare",
				HTML: `<html>
<body>
    <p>Coming soon.</p>
</body>
</html>`,
			},
			VersionRegressed: {
				Label:   "regressed",
				Headers: map[string]string{"X-Frame-Options": "SAMEORIGIN"},
				HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Demo Site - Handmade furniture, tables, shelves, chairs, stools, desks and more for small homes</title>
    <meta name="description" content="Demo Site - Handmade furniture, tables, shelves, chairs, stools, desks and more for small homes">
    <meta name="viewport" content="width=1024">
    <script src="/static/a.js"></script><script src="/static/b.js"></script><script src="/static/c.js"></script>
    <script src="/static/d.js"></script><script src="/static/e.js"></script><script src="/static/f.js"></script>
    <link rel="stylesheet" href="/static/a.css"><link rel="stylesheet" href="/static/b.css">
    <link rel="stylesheet" href="/static/c.css"><link rel="stylesheet" href="/static/d.css">
</head>
<body>
    <h1>Handmade furniture</h1>
    <h1>Also handmade</h1>
    <img src="/static/workshop.png">
    <img src="/static/bench.jpg">
    <a href="https://elsewhere.test/">Partner</a>
    <input type="text" placeholder="Search">
    <p>` + filler(5) + `</p>
</body>
</html>`,
			},
		},
	}
}

func getBlogPage() PageDefinition {
	return PageDefinition{
		Path:        "/blog",
		Description: "Blog index with moderate content",
		Versions: map[int]PageVersion{
			VersionOptimized: {
				Label:   "optimized",
				Headers: secureHeaders,
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Demo Site Blog - Notes from the workshop floor</title>
    <meta name="description" content="Stories about joinery, finishes and the pieces leaving the workshop each week.">
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <h1>Blog</h1>
    <h2>Latest posts</h2>
    <a href="/">Home</a>
    <p>` + filler(45) + `</p>
</body>
</html>`,
			},
			VersionBare: {
				Label: "bare",
				HTML:  `<html><body><p>No posts yet.</p></body></html>`,
			},
		},
	}
}

const robotsTxt = `User-agent: *
Allow: /
Sitemap: /sitemap.xml
`
