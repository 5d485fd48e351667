package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/raysh454/sitebots/internal/app"
	"github.com/raysh454/sitebots/internal/logging"
	"github.com/raysh454/sitebots/internal/metrics"
	"github.com/raysh454/sitebots/internal/model"
	"github.com/raysh454/sitebots/internal/report"
	"github.com/raysh454/sitebots/internal/utils"
)

func newAnalyzeCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze a website and print the report",
		Long: `Analyze fetches the page at <url>, runs the six bots over it and prints
the aggregated report. A URL without a scheme is treated as https.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.runAnalyze(cmd, args[0])
		},
	}

	cmd.Flags().StringP("format", "f", report.FormatTable, "output format ("+strings.Join(report.Formats(), ", ")+")")
	cmd.Flags().StringP("output", "o", "", "output file path")
	cmd.Flags().Bool("no-color", false, "disable colored table output")
	cmd.Flags().BoolP("quiet", "q", false, "do not print bot progress")
	cmd.Flags().Int("min-score", 0, "exit with an error if the overall score is below this value")
	return cmd
}

func (rt *runtime) runAnalyze(cmd *cobra.Command, rawURL string) error {
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	if strings.EqualFold(format, report.FormatXLSX) && outputPath == "" {
		return fmt.Errorf("the xlsx format needs --output")
	}
	if !strings.EqualFold(format, report.FormatXLSX) {
		if _, err := report.NewFormatter(format, false); err != nil {
			return err
		}
	}

	cfg, logger, err := rt.loadConfig(cmd)
	if err != nil {
		return err
	}

	wc, closeClient, err := rt.webClientFor(cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient()

	orch, err := app.NewOrchestrator(cfg, wc, logger, metrics.New(prometheus.NewRegistry()), rt.appOptions...)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	var sink func([]model.BotState)
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		sink = newProgressPrinter(cmd.ErrOrStderr()).Sink
	}

	analysis, err := orch.RunAnalysis(cmd.Context(), utils.EnsureScheme(rawURL), sink)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := writeReport(cmd, analysis, format, outputPath); err != nil {
		return err
	}

	minScore, _ := cmd.Flags().GetInt("min-score")
	if analysis.OverallScore < minScore {
		logger.Debug("score below threshold",
			logging.Field{Key: "score", Value: analysis.OverallScore},
			logging.Field{Key: "min_score", Value: minScore})
		return fmt.Errorf("overall score %d is below the minimum of %d", analysis.OverallScore, minScore)
	}
	return nil
}

func writeReport(cmd *cobra.Command, analysis *model.SiteAnalysis, format, outputPath string) error {
	if outputPath == "" {
		out := cmd.OutOrStdout()
		if err := report.Write(out, analysis, format, colorEnabled(cmd, out)); err != nil {
			return fmt.Errorf("failed to format report: %w", err)
		}
		return nil
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, analysis, format, false); err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to: %s\n", outputPath)
	return nil
}
