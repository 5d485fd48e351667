package analyzer

import (
	"context"
	"time"

	"github.com/raysh454/sitebots/internal/model"
	"github.com/raysh454/sitebots/internal/webclient"
)

// Analyzer evaluates one category's fixed rule set against a fetched page.
// Implementations hold no per-run state and are safe for concurrent use.
type Analyzer interface {
	Category() model.Category
	Analyze(ctx context.Context, page *Page) (*model.CategoryReport, error)
}

// PageFetcher retrieves auxiliary resources (robots.txt). *fetcher.Fetcher
// satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (*webclient.Response, error)
}

// Default returns the six analyzers in category order.
func Default(f PageFetcher) []Analyzer {
	return []Analyzer{
		&Technical{Fetcher: f, RobotsTimeout: 5 * time.Second},
		&Content{},
		&Performance{},
		&Mobile{},
		&Security{},
		&Accessibility{},
	}
}
