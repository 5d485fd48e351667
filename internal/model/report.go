package model

import (
	"fmt"
	"unicode/utf8"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Weight orders severities for recommendation ranking: high=3, medium=2, low=1.
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Status is the qualitative bucket derived from a category score.
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusWarning   Status = "warning"
	StatusPoor      Status = "poor"
)

// StatusFromScore buckets a 0-100 score: >=80 excellent, >=60 good, >=40 warning.
func StatusFromScore(score int) Status {
	switch {
	case score >= 80:
		return StatusExcellent
	case score >= 60:
		return StatusGood
	case score >= 40:
		return StatusWarning
	default:
		return StatusPoor
	}
}

// Issue is a single problem found by a category analyzer.
type Issue struct {
	ID             string   `json:"id"`
	Severity       Severity `json:"severity"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	AffectedPages  []string `json:"affectedPages"`
}

// CategoryReport is the scored output of one category analyzer.
type CategoryReport struct {
	Score     int               `json:"score"`
	Status    Status            `json:"status"`
	Issues    []Issue           `json:"issues"`
	Positives []string          `json:"positives"`
	Metrics   map[string]string `json:"metrics"`
}

// NewCategoryReport scores a rule evaluation with the simple penalty model:
// max(0, 100 - issues*penalty).
func NewCategoryReport(penalty int, issues []Issue, positives []string, metrics map[string]string) *CategoryReport {
	score := 100 - len(issues)*penalty
	if score < 0 {
		score = 0
	}
	if issues == nil {
		issues = []Issue{}
	}
	if positives == nil {
		positives = []string{}
	}
	if metrics == nil {
		metrics = map[string]string{}
	}
	return &CategoryReport{
		Score:     score,
		Status:    StatusFromScore(score),
		Issues:    issues,
		Positives: positives,
		Metrics:   metrics,
	}
}

// PlaceholderReport is the zero-score report used for a category that produced
// no result at all.
func PlaceholderReport() *CategoryReport {
	return &CategoryReport{
		Score:     0,
		Status:    StatusPoor,
		Issues:    []Issue{},
		Positives: []string{},
		Metrics:   map[string]string{},
	}
}

// FailedCategoryReport is the degraded report substituted when a category's
// analyzer task fails: score 0, one high severity issue carrying the error.
func FailedCategoryReport(category Category, baseURL string, err error) *CategoryReport {
	msg := "Unknown error occurred"
	if err != nil {
		msg = err.Error()
	}
	short := msg
	if utf8.RuneCountInString(short) > 50 {
		short = string([]rune(short)[:50]) + "..."
	}
	issue := Issue{
		ID:             fmt.Sprintf("%s-error", category),
		Severity:       SeverityHigh,
		Title:          fmt.Sprintf("%s analysis failed", category.Title()),
		Description:    fmt.Sprintf("Unable to complete %s analysis: %s", category, msg),
		Recommendation: "Please check the URL accessibility and try again",
		AffectedPages:  []string{baseURL},
	}
	return &CategoryReport{
		Score:     0,
		Status:    StatusPoor,
		Issues:    []Issue{issue},
		Positives: []string{},
		Metrics: map[string]string{
			"Status": "Analysis Failed",
			"Error":  short,
		},
	}
}
