package render

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/KaramelBytes/salesdash/internal/utils"
)

// DashboardOptions controls which files WriteDashboard produces.
type DashboardOptions struct {
	Meta   Meta
	Charts bool
	Chart  ChartOptions
}

// Output file names inside a dashboard directory.
const (
	SummaryFile  = "summary.md"
	ResultFile   = "result.json"
	WorkbookFile = "dashboard.xlsx"
	ChartsDir    = "charts"
)

// WriteDashboard writes summary.md, result.json, dashboard.xlsx and, when
// enabled, charts/<name>.png into dir. It returns the written paths.
func WriteDashboard(dir string, res *analysis.Result, opt DashboardOptions) ([]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var written []string
	write := func(name string, data []byte) error {
		p := filepath.Join(dir, name)
		if err := utils.SafeWriteFile(p, data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, p)
		return nil
	}

	if err := write(SummaryFile, []byte(res.Markdown())); err != nil {
		return written, err
	}
	js, err := JSON(res, opt.Meta)
	if err != nil {
		return written, err
	}
	if err := write(ResultFile, js); err != nil {
		return written, err
	}
	xlsx, err := WorkbookBytes(res)
	if err != nil {
		return written, err
	}
	if err := write(WorkbookFile, xlsx); err != nil {
		return written, err
	}

	if opt.Charts {
		charts, err := Charts(res, opt.Chart)
		if err != nil {
			return written, err
		}
		if len(charts) > 0 {
			if err := utils.EnsureDir(filepath.Join(dir, ChartsDir)); err != nil {
				return written, fmt.Errorf("create charts dir: %w", err)
			}
		}
		names := make([]string, 0, len(charts))
		for n := range charts {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			if err := write(filepath.Join(ChartsDir, n+".png"), charts[n]); err != nil {
				return written, err
			}
		}
	}
	logging.Logger().Debug("dashboard written", "dir", dir, "files", len(written), "run_id", opt.Meta.RunID)
	return written, nil
}
