package model

import "time"

type BotStatus string

const (
	BotIdle      BotStatus = "idle"
	BotRunning   BotStatus = "running"
	BotCompleted BotStatus = "completed"
	BotError     BotStatus = "error"
)

// Terminal reports whether no further transitions are allowed.
func (s BotStatus) Terminal() bool {
	return s == BotCompleted || s == BotError
}

// BotState is the progress record of one category's analyzer task.
type BotState struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Status      BotStatus `json:"status"`
	Progress    int       `json:"progress"`
	Findings    int       `json:"findings"`
}

type Effort string

const (
	EffortEasy   Effort = "easy"
	EffortMedium Effort = "medium"
	EffortHard   Effort = "hard"
)

// Recommendation is derived one-to-one from an Issue.
type Recommendation struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Priority    Severity `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
	Effort      Effort   `json:"effort"`
	Steps       []string `json:"steps"`
}

type Metadata struct {
	CrawledPages int `json:"crawledPages"`
	// TotalLinks and AnalysisDuration stay 0 until multi-page crawling exists.
	TotalLinks       int       `json:"totalLinks"`
	AnalysisDuration int       `json:"analysisDuration"`
	LastModified     time.Time `json:"lastModified"`
}

// SiteAnalysis is the final report of one run. Categories always holds all
// six keys.
type SiteAnalysis struct {
	ID              string                       `json:"id"`
	URL             string                       `json:"url"`
	Timestamp       time.Time                    `json:"timestamp"`
	OverallScore    int                          `json:"overallScore"`
	Categories      map[Category]*CategoryReport `json:"categories"`
	Recommendations []Recommendation             `json:"recommendations"`
	Metadata        Metadata                     `json:"metadata"`
}

// IssueCount returns the number of issues across all categories.
func (a *SiteAnalysis) IssueCount() int {
	n := 0
	for _, r := range a.Categories {
		if r != nil {
			n += len(r.Issues)
		}
	}
	return n
}
