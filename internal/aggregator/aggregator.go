package aggregator

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/sitebots/internal/model"
)

var impacts = map[model.Severity]string{
	model.SeverityHigh:   "High impact on SEO rankings and user experience. Should be addressed immediately.",
	model.SeverityMedium: "Moderate impact on SEO performance. Recommended to fix within a few weeks.",
	model.SeverityLow:    "Minor impact on SEO. Can be addressed as time permits for optimization.",
}

const defaultImpact = "Impact varies depending on implementation."

// Impact returns the fixed descriptive sentence for a severity.
func Impact(s model.Severity) string {
	if text, ok := impacts[s]; ok {
		return text
	}
	return defaultImpact
}

// EffortFor maps severity to effort: high is medium effort, everything else easy.
func EffortFor(s model.Severity) model.Effort {
	if s == model.SeverityHigh {
		return model.EffortMedium
	}
	return model.EffortEasy
}

// Aggregate combines per-category reports into the final SiteAnalysis. Missing
// categories get the zero-score placeholder, so the result always carries all
// six. results is not modified.
func Aggregate(url string, results map[model.Category]*model.CategoryReport, crawledPages int, completedAt time.Time) *model.SiteAnalysis {
	categories := make(map[model.Category]*model.CategoryReport, len(model.Categories()))
	total := 0
	var recs []model.Recommendation

	for _, c := range model.Categories() {
		r := results[c]
		if r == nil {
			r = model.PlaceholderReport()
		}
		categories[c] = r
		total += r.Score

		for _, is := range r.Issues {
			recs = append(recs, Recommend(is))
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Weight() > recs[j].Priority.Weight()
	})
	if recs == nil {
		recs = []model.Recommendation{}
	}

	if crawledPages < 1 {
		crawledPages = 1
	}

	return &model.SiteAnalysis{
		ID:              uuid.NewString(),
		URL:             url,
		Timestamp:       completedAt,
		OverallScore:    int(math.Round(float64(total) / float64(len(model.Categories())))),
		Categories:      categories,
		Recommendations: recs,
		Metadata: model.Metadata{
			CrawledPages: crawledPages,
			LastModified: completedAt,
		},
	}
}

// Recommend derives the single Recommendation for an issue.
func Recommend(is model.Issue) model.Recommendation {
	category, _, _ := strings.Cut(is.ID, "-")
	return model.Recommendation{
		ID:          "rec-" + is.ID,
		Category:    category,
		Priority:    is.Severity,
		Title:       is.Title,
		Description: is.Description,
		Impact:      Impact(is.Severity),
		Effort:      EffortFor(is.Severity),
		Steps:       []string{is.Recommendation},
	}
}
