package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/KaramelBytes/salesdash/internal/render"
	"github.com/KaramelBytes/salesdash/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	abFlags      runFlags
	abOutputPath string
	abCharts     bool
	abQuiet      bool
	abFailFast   bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files with progress, one dashboard directory each",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		c := currentConfig()
		s, err := abFlags.resolve(cmd, c)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("charts") {
			s.charts = abCharts
		}
		outDir := abOutputPath
		if outDir == "" {
			outDir = c.OutputDir
		}
		if outDir == "" {
			outDir = "salesdash-out"
		}

		out := cmd.OutOrStdout()
		total := len(files)
		var failed int
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			res, err := analyzeFile(path, s)
			if err != nil {
				if abFailFast {
					return err
				}
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", filepath.Base(path), err)
				continue
			}
			runID := uuid.NewString()
			dir := filepath.Join(outDir, utils.RunDirName(path, runID))
			meta := render.Meta{RunID: runID, Source: filepath.Base(path)}
			if _, err := render.WriteDashboard(dir, res, render.DashboardOptions{Meta: meta, Charts: s.charts, Chart: s.chart}); err != nil {
				return err
			}
			printNotices(cmd.ErrOrStderr(), res, abQuiet)
			if !abQuiet {
				fmt.Fprintf(out, "✓ Wrote dashboard to %s\n", dir)
			}
		}
		logging.Logger().Debug("batch finished", "files", total, "failed", failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, and dedupes.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abFlags.register(analyzeBatchCmd.Flags())
	analyzeBatchCmd.Flags().StringVarP(&abOutputPath, "output", "o", "", "directory for the run subdirectories (default output_dir or ./salesdash-out)")
	analyzeBatchCmd.Flags().BoolVar(&abCharts, "charts", true, "render PNG charts")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	analyzeBatchCmd.Flags().BoolVar(&abFailFast, "fail-fast", false, "stop at the first file that cannot be read")
}
