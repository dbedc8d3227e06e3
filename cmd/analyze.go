package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/ingest"
	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/KaramelBytes/salesdash/internal/render"
	"github.com/KaramelBytes/salesdash/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	anaFlags      runFlags
	anaOutputPath string
	anaFormat     string
	anaCharts     bool
	anaQuiet      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX sales file and produce the dashboard",
	Long: `Analyze reads one sales file and computes the dashboard.

Without --output the result is printed to stdout as Markdown (or JSON with --format json).
With --output (or output_dir in config) a run directory <file>-<run id> is created holding
summary.md, result.json, dashboard.xlsx and, unless --charts=false, charts/*.png.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c := currentConfig()
		s, err := anaFlags.resolve(cmd, c)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("charts") {
			s.charts = anaCharts
		}
		res, err := analyzeFile(path, s)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		runID := uuid.NewString()
		meta := render.Meta{RunID: runID, Source: filepath.Base(path)}

		outDir := anaOutputPath
		if outDir == "" {
			outDir = c.OutputDir
		}
		if outDir != "" {
			dir := filepath.Join(outDir, utils.RunDirName(path, runID))
			paths, err := render.WriteDashboard(dir, res, render.DashboardOptions{Meta: meta, Charts: s.charts, Chart: s.chart})
			if err != nil {
				return err
			}
			printNotices(cmd.ErrOrStderr(), res, anaQuiet)
			fmt.Fprintf(out, "✓ Wrote dashboard to %s (%d files)\n", dir, len(paths))
			return nil
		}

		switch strings.ToLower(anaFormat) {
		case "", "md", "markdown":
			fmt.Fprintln(out, res.Markdown())
		case "json":
			b, err := render.JSON(res, meta)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		case "xlsx":
			return fmt.Errorf("--format xlsx requires --output")
		default:
			return fmt.Errorf("unsupported --format: %s (use md|json|xlsx)", anaFormat)
		}
		printNotices(cmd.ErrOrStderr(), res, anaQuiet)
		return nil
	},
}

// analyzeFile ingests path and runs one analysis under s.
func analyzeFile(path string, s *runSettings) (*analysis.Result, error) {
	t, err := ingest.ReadFile(path, s.ingest)
	if err != nil {
		return nil, err
	}
	m := s.mappingFor(t)
	logging.Logger().Debug("analyzing", "file", path, "rows", t.Len(), "mapping", m.String())
	return analysis.Analyze(t, m, s.analysis), nil
}

// printNotices reports schema issues and unavailable pieces as warnings.
func printNotices(w io.Writer, res *analysis.Result, quiet bool) {
	if quiet {
		return
	}
	for _, n := range res.Notices() {
		fmt.Fprintf(w, "⚠ %s\n", n)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "directory to write the dashboard files into (a run subdirectory is created)")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "md", "stdout format when --output is not set: md | json")
	analyzeCmd.Flags().BoolVar(&anaCharts, "charts", true, "render PNG charts when writing to --output")
	analyzeCmd.Flags().BoolVarP(&anaQuiet, "quiet", "q", false, "suppress warnings about unavailable dashboard pieces")
}
