package utils_test

import (
	"errors"
	"testing"

	"github.com/raysh454/sitebots/internal/utils"
)

func TestValidateAbsoluteURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://example.com:8080/path?q=1", false},
		{"HTTPS://Example.COM/", false},
		{"not a url", true},
		{"", true},
		{"example.com", true},
		{"/relative/path", true},
		{"ftp://example.com/file", true},
		{"https://", true},
		{"mailto:someone@example.com", true},
	}
	for _, tt := range tests {
		_, err := utils.ValidateAbsoluteURL(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAbsoluteURL(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestValidateAbsoluteURL_SentinelErrors(t *testing.T) {
	t.Parallel()
	if _, err := utils.ValidateAbsoluteURL("  "); !errors.Is(err, utils.ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
	if _, err := utils.ValidateAbsoluteURL("ftp://example.com"); !errors.Is(err, utils.ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
	if _, err := utils.ValidateAbsoluteURL("example.com/x"); !errors.Is(err, utils.ErrNotAbsolute) {
		t.Errorf("expected ErrNotAbsolute, got %v", err)
	}
}

func TestEnsureScheme(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"example.com":         "https://example.com",
		" example.com/a ":     "https://example.com/a",
		"http://example.com":  "http://example.com",
		"https://example.com": "https://example.com",
		"":                    "",
	}
	for in, want := range cases {
		if got := utils.EnsureScheme(in); got != want {
			t.Errorf("EnsureScheme(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOriginAndIsHTTPS(t *testing.T) {
	t.Parallel()
	u, err := utils.ValidateAbsoluteURL("HTTPS://Example.com:8443/a/b?c=d")
	if err != nil {
		t.Fatal(err)
	}
	if got := utils.Origin(u); got != "https://example.com:8443" {
		t.Errorf("Origin = %q", got)
	}
	if !utils.IsHTTPS("HTTPS://example.com") || utils.IsHTTPS("http://example.com") {
		t.Error("IsHTTPS mismatch")
	}
}

func TestCanonicalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		opts utils.CanonicalizeOptions
		want string
	}{
		{
			in:   "HTTP://Example.COM:80/foo/../bar?b=2&a=1#frag",
			want: "http://example.com/bar?a=1&b=2",
		},
		{
			in:   "https://example.com:443",
			want: "https://example.com/",
		},
		{
			in:   "https://example.com:8443/x",
			want: "https://example.com:8443/x",
		},
		{
			in:   "https://example.com/page?utm_source=x&utm_medium=y&z=1",
			opts: utils.CanonicalizeOptions{DropTrackingParams: true},
			want: "https://example.com/page?z=1",
		},
		{
			in:   "https://例え.テスト/a",
			want: "https://xn--r8jz45g.xn--zckzah/a",
		},
		{
			in:   "https://example.com/foo/",
			opts: utils.CanonicalizeOptions{StripTrailingSlash: true},
			want: "https://example.com/foo",
		},
		{
			in:   "https://example.com/foo/",
			want: "https://example.com/foo/",
		},
		{
			in:   "https://user:pw@example.com/",
			want: "https://example.com/",
		},
	}
	for _, tt := range tests {
		got, err := utils.Canonicalize(tt.in, tt.opts)
		if err != nil {
			t.Fatalf("Canonicalize(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalize_Errors(t *testing.T) {
	t.Parallel()
	if _, err := utils.Canonicalize("", utils.CanonicalizeOptions{}); !errors.Is(err, utils.ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
	if _, err := utils.Canonicalize("/just/a/path", utils.CanonicalizeOptions{}); !errors.Is(err, utils.ErrMissingHost) {
		t.Errorf("expected ErrMissingHost, got %v", err)
	}
}
