package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/raysh454/sitebots/internal/model"
)

// Format names accepted by the CLI.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatXLSX     = "xlsx"
)

// Formats lists every supported output format.
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatMarkdown, FormatXLSX}
}

type Formatter interface {
	Format(a *model.SiteAnalysis) (string, error)
}

// NewFormatter returns the text formatter for format. xlsx is binary and is
// written with WriteXLSX instead.
func NewFormatter(format string, colorize bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return NewTableFormatter(colorize), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported text format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
}

// Write renders a in format to w.
func Write(w io.Writer, a *model.SiteAnalysis, format string, colorize bool) error {
	if strings.EqualFold(format, FormatXLSX) {
		return WriteXLSX(w, a)
	}
	f, err := NewFormatter(format, colorize)
	if err != nil {
		return err
	}
	out, err := f.Format(a)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

type TableFormatter struct {
	colorize bool
}

func NewTableFormatter(colorize bool) *TableFormatter {
	return &TableFormatter{colorize: colorize}
}

func (f *TableFormatter) paint(c *color.Color, s string) string {
	if !f.colorize || c == nil {
		return s
	}
	return c.Sprint(s)
}

func (f *TableFormatter) Format(a *model.SiteAnalysis) (string, error) {
	var output strings.Builder

	heading := color.New(color.FgCyan, color.Bold)
	output.WriteString(f.paint(heading, fmt.Sprintf("SEO Analysis Report - %s", a.URL)))
	output.WriteString("\n")
	output.WriteString(fmt.Sprintf("Analyzed at: %s | Pages crawled: %d\n\n",
		a.Timestamp.Format("2006-01-02 15:04:05"), a.Metadata.CrawledPages))

	output.WriteString(f.paint(color.New(color.FgYellow, color.Bold), "Overall Score:"))
	output.WriteString(" ")
	output.WriteString(f.paint(statusColor(model.StatusFromScore(a.OverallScore)),
		fmt.Sprintf("%d/100 (%s)", a.OverallScore, model.StatusFromScore(a.OverallScore))))
	output.WriteString("\n\n")

	f.writeCategories(&output, a)
	f.writeRecommendations(&output, a.Recommendations)

	return output.String(), nil
}

func (f *TableFormatter) writeCategories(output *strings.Builder, a *model.SiteAnalysis) {
	output.WriteString(f.paint(color.New(color.FgYellow, color.Bold), "Categories:"))
	output.WriteString("\n")
	output.WriteString(fmt.Sprintf("  %-15s %5s  %-10s %6s\n", "CATEGORY", "SCORE", "STATUS", "ISSUES"))
	for _, c := range model.Categories() {
		r := a.Categories[c]
		if r == nil {
			continue
		}
		status := fmt.Sprintf("%-10s", r.Status)
		output.WriteString(fmt.Sprintf("  %-15s %5d  %s %6d\n",
			c.Title(), r.Score, f.paint(statusColor(r.Status), status), len(r.Issues)))
	}
}

func (f *TableFormatter) writeRecommendations(output *strings.Builder, recs []model.Recommendation) {
	output.WriteString("\n")
	if len(recs) == 0 {
		output.WriteString(f.paint(color.New(color.FgGreen, color.Bold), "✅ No issues found! The page passes every check."))
		output.WriteString("\n")
		return
	}

	output.WriteString(f.paint(color.New(color.FgYellow, color.Bold), "Recommendations:"))
	output.WriteString("\n")
	for i, rec := range recs {
		if i > 0 {
			output.WriteString("\n")
		}
		priority := f.paint(severityColor(rec.Priority), strings.ToUpper(string(rec.Priority)))
		output.WriteString(fmt.Sprintf("  [%s] %s (%s, effort: %s)\n", priority, rec.Title, rec.Category, rec.Effort))
		output.WriteString(fmt.Sprintf("    Issue: %s\n", rec.Description))
		for _, step := range rec.Steps {
			output.WriteString(fmt.Sprintf("    Fix:   %s\n", step))
		}
	}
}

func severityColor(s model.Severity) *color.Color {
	switch s {
	case model.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case model.SeverityMedium:
		return color.New(color.FgYellow)
	case model.SeverityLow:
		return color.New(color.FgBlue)
	default:
		return nil
	}
}

func statusColor(s model.Status) *color.Color {
	switch s {
	case model.StatusExcellent:
		return color.New(color.FgGreen, color.Bold)
	case model.StatusGood:
		return color.New(color.FgGreen)
	case model.StatusWarning:
		return color.New(color.FgYellow)
	case model.StatusPoor:
		return color.New(color.FgRed)
	default:
		return nil
	}
}

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(a *model.SiteAnalysis) (string, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	return string(data) + "\n", nil
}

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (f *MarkdownFormatter) Format(a *model.SiteAnalysis) (string, error) {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("# SEO Analysis Report - %s\n\n", a.URL))
	output.WriteString(fmt.Sprintf("**Analyzed:** %s | **Pages crawled:** %d\n\n",
		a.Timestamp.Format("2006-01-02 15:04:05"), a.Metadata.CrawledPages))
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/100 (%s)\n\n", a.OverallScore, model.StatusFromScore(a.OverallScore)))

	output.WriteString("## Categories\n\n")
	output.WriteString("| Category | Score | Status | Issues |\n")
	output.WriteString("|---|---|---|---|\n")
	for _, c := range model.Categories() {
		r := a.Categories[c]
		if r == nil {
			continue
		}
		output.WriteString(fmt.Sprintf("| %s | %d | %s | %d |\n", c.Title(), r.Score, r.Status, len(r.Issues)))
	}
	output.WriteString("\n")

	if len(a.Recommendations) == 0 {
		output.WriteString("## ✅ No Issues Found\n\nThe page passes every check.\n")
		return output.String(), nil
	}

	output.WriteString("## Recommendations\n\n")
	for _, rec := range a.Recommendations {
		output.WriteString(fmt.Sprintf("### %s %s\n\n", severityBadge(rec.Priority), rec.Title))
		output.WriteString(fmt.Sprintf("**Category:** %s | **Effort:** %s\n\n", rec.Category, rec.Effort))
		output.WriteString(fmt.Sprintf("**Description:** %s\n\n", rec.Description))
		output.WriteString(fmt.Sprintf("**Impact:** %s\n\n", rec.Impact))
		for _, step := range rec.Steps {
			output.WriteString(fmt.Sprintf("- %s\n", step))
		}
		output.WriteString("\n---\n\n")
	}
	return output.String(), nil
}

func severityBadge(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return "🔴 **HIGH**"
	case model.SeverityMedium:
		return "🟡 **MEDIUM**"
	case model.SeverityLow:
		return "🔵 **LOW**"
	default:
		return "⚪ **UNKNOWN**"
	}
}

// IsTerminal reports whether stdout is a character device.
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode()&os.ModeCharDevice != 0
}
