package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/raysh454/sitebots/internal/model"
)

// Sheet names of the workbook export.
const (
	SheetSummary         = "Summary"
	SheetIssues          = "Issues"
	SheetRecommendations = "Recommendations"
)

// WriteXLSX writes a as a workbook with one sheet each for the category
// summary, every issue and the ordered recommendations.
func WriteXLSX(w io.Writer, a *model.SiteAnalysis) error {
	f, err := BuildWorkbook(a)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// BuildWorkbook returns the in-memory workbook for a. Callers must Close it.
func BuildWorkbook(a *model.SiteAnalysis) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("renaming summary sheet: %w", err)
	}
	for _, name := range []string{SheetIssues, SheetRecommendations} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("creating %s sheet: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	steps := []func(*excelize.File, *model.SiteAnalysis, int) error{
		writeSummarySheet,
		writeIssuesSheet,
		writeRecommendationsSheet,
	}
	for _, step := range steps {
		if err := step(f, a, header); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSummarySheet(f *excelize.File, a *model.SiteAnalysis, header int) error {
	rows := [][]any{
		{"URL", a.URL},
		{"Analyzed At", a.Timestamp.Format("2006-01-02 15:04:05")},
		{"Overall Score", a.OverallScore},
		{"Crawled Pages", a.Metadata.CrawledPages},
		{},
		{"Category", "Score", "Status", "Issues", "Positives"},
	}
	for _, c := range model.Categories() {
		r := a.Categories[c]
		if r == nil {
			continue
		}
		rows = append(rows, []any{c.Title(), r.Score, string(r.Status), len(r.Issues), len(r.Positives)})
	}

	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A6", "E6", header); err != nil {
		return fmt.Errorf("styling summary header: %w", err)
	}
	return f.SetColWidth(SheetSummary, "A", "B", 24)
}

func writeIssuesSheet(f *excelize.File, a *model.SiteAnalysis, header int) error {
	rows := [][]any{{"Category", "ID", "Severity", "Title", "Description", "Recommendation", "Affected Pages"}}
	for _, c := range model.Categories() {
		r := a.Categories[c]
		if r == nil {
			continue
		}
		for _, is := range r.Issues {
			rows = append(rows, []any{
				string(c), is.ID, string(is.Severity), is.Title, is.Description,
				is.Recommendation, strings.Join(is.AffectedPages, ", "),
			})
		}
	}

	if err := writeRows(f, SheetIssues, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetIssues, "A1", "G1", header); err != nil {
		return fmt.Errorf("styling issues header: %w", err)
	}
	return f.SetColWidth(SheetIssues, "D", "F", 40)
}

func writeRecommendationsSheet(f *excelize.File, a *model.SiteAnalysis, header int) error {
	rows := [][]any{{"Rank", "Priority", "Category", "Title", "Description", "Impact", "Effort", "Steps"}}
	for i, rec := range a.Recommendations {
		rows = append(rows, []any{
			i + 1, string(rec.Priority), rec.Category, rec.Title, rec.Description,
			rec.Impact, string(rec.Effort), strings.Join(rec.Steps, "\n"),
		})
	}

	if err := writeRows(f, SheetRecommendations, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetRecommendations, "A1", "H1", header); err != nil {
		return fmt.Errorf("styling recommendations header: %w", err)
	}
	return f.SetColWidth(SheetRecommendations, "D", "F", 40)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
