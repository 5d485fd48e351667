package testutil

import (
	"net/http"
	"strings"
)

const wellFormed = `<!doctype html>
<html><head>
<title>A perfectly reasonable page title for tests</title>
<meta name="description" content="Everything you need to know about the fixtures used here.">
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="apple-touch-icon" href="/icon.png">
<style>@media (max-width: 600px) { body { margin: 0 } }</style>
</head><body>
<a href="#main">Skip to content</a>
<h1>Main</h1><h2>Sub</h2><h3>Detail</h3>
<img src="/hero.webp" alt="hero">
<a href="/one">one</a><a href="./two">two</a><a href="../three">three</a>
<form action="/search"><label for="q">Search</label><input id="q" type="text"><input type="submit" aria-label="go"></form>
<p>%WORDS%</p>
</body></html>`

// WellFormedHTML is a page that passes every rule of all six analyzers when
// served over https with SecureHeaders.
func WellFormedHTML() string {
	return strings.Replace(wellFormed, "%WORDS%", strings.Repeat("word ", 320), 1)
}

// SecureHeaders returns all four headers the security analyzer looks for.
func SecureHeaders() http.Header {
	h := http.Header{}
	h.Set("Strict-Transport-Security", "max-age=31536000")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-XSS-Protection", "1; mode=block")
	return h
}
