package render

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/xuri/excelize/v2"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleResult() *analysis.Result {
	t := analysis.NewTable("Product", "Category", "Region", "Price", "Quantity", "Month")
	t.Append(analysis.Text("A"), analysis.Text("X"), analysis.Text("E"), analysis.Number(10), analysis.Number(2), analysis.Text("Jan"))
	t.Append(analysis.Text("B"), analysis.Text("X"), analysis.Text("W"), analysis.Number(5), analysis.Number(4), analysis.Text("Feb"))
	t.Append(analysis.Text("C"), analysis.Text("Y"), analysis.Text("E"), analysis.Number(3), analysis.Number(1), analysis.Text("Feb"))
	return analysis.Analyze(t, analysis.FixedMapping(), analysis.DefaultOptions())
}

func TestChartsRenderPresentAggregates(t *testing.T) {
	res := sampleResult()
	charts, err := Charts(res, ChartOptions{Width: 400, Height: 300})
	if err != nil {
		t.Fatalf("Charts: %v", err)
	}
	for _, name := range ChartNames() {
		b, ok := charts[name]
		if !ok {
			t.Fatalf("missing chart %s", name)
		}
		if !bytes.HasPrefix(b, pngMagic) {
			t.Fatalf("%s is not a PNG", name)
		}
	}
}

func TestChartsSkipAbsentAggregates(t *testing.T) {
	tbl := analysis.NewTable("Product", "Price")
	tbl.Append(analysis.Text("A"), analysis.Number(1))
	res := analysis.Analyze(tbl, analysis.FixedMapping(), analysis.DefaultOptions())
	charts, err := Charts(res, DefaultChartOptions())
	if err != nil {
		t.Fatalf("Charts: %v", err)
	}
	if len(charts) != 0 {
		t.Fatalf("expected no charts, got %d", len(charts))
	}
	if _, err := Chart(res, "nope", DefaultChartOptions()); err == nil {
		t.Fatal("expected error for unknown chart")
	}
}

func TestSingleMonthLineChart(t *testing.T) {
	tbl := analysis.NewTable("Product", "Price", "Quantity", "Month")
	tbl.Append(analysis.Text("A"), analysis.Number(2), analysis.Number(2), analysis.Text("Jan"))
	res := analysis.Analyze(tbl, analysis.FixedMapping(), analysis.DefaultOptions())
	b, err := Chart(res, analysis.AggByMonth, ChartOptions{Width: 320, Height: 240})
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	if !bytes.HasPrefix(b, pngMagic) {
		t.Fatal("not a PNG")
	}
}

func TestWorkbookSheets(t *testing.T) {
	res := sampleResult()
	b, err := WorkbookBytes(res)
	if err != nil {
		t.Fatalf("WorkbookBytes: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got := strings.Join(f.GetSheetList(), ",")
	want := "Overview,Statistics,Preview,Top Products,Category Sales,Region Sales,Monthly Sales,Correlation"
	if got != want {
		t.Fatalf("sheets = %s, want %s", got, want)
	}
	v, err := f.GetCellValue("Category Sales", "A2")
	if err != nil || v != "X" {
		t.Fatalf("Category Sales A2 = %q, %v", v, err)
	}
	v, _ = f.GetCellValue("Overview", "A4")
	if v != "Total Sales" {
		t.Fatalf("Overview A4 = %q", v)
	}
	v, _ = f.GetCellValue("Correlation", "A2")
	if v != res.Corr.Columns[0] {
		t.Fatalf("Correlation A2 = %q", v)
	}
}

func TestWorkbookWithoutTotals(t *testing.T) {
	tbl := analysis.NewTable("Product", "Note")
	tbl.Append(analysis.Text("A"), analysis.Text("x"))
	res := analysis.Analyze(tbl, analysis.FixedMapping(), analysis.DefaultOptions())
	f, err := Workbook(res)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	defer f.Close()
	if got := strings.Join(f.GetSheetList(), ","); got != "Overview,Statistics,Preview" {
		t.Fatalf("sheets = %s", got)
	}
}

func TestJSONUsesNullForUndefined(t *testing.T) {
	tbl := analysis.NewTable("Price", "Quantity", "Empty")
	tbl.Append(analysis.Number(1), analysis.Number(1), analysis.Null())
	res := analysis.Analyze(tbl, analysis.ColumnMapping{analysis.RolePrice: "Price", analysis.RoleQuantity: "Quantity"}, analysis.DefaultOptions())
	b, err := JSON(res, Meta{RunID: "r1", Source: "x.csv"})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var doc struct {
		RunID    string `json:"run_id"`
		Overview struct {
			TotalSales *float64 `json:"total_sales"`
		} `json:"overview"`
		Statistics []map[string]any `json:"statistics"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, b)
	}
	if doc.RunID != "r1" || doc.Overview.TotalSales == nil || *doc.Overview.TotalSales != 1 {
		t.Fatalf("doc = %+v", doc)
	}
	// single row: std is undefined
	for _, s := range doc.Statistics {
		if s["name"] == "Price" && s["std"] != nil {
			t.Fatalf("std = %v, want null", s["std"])
		}
		if s["name"] == "Empty" && s["mean"] != nil {
			t.Fatalf("mean of empty column = %v", s["mean"])
		}
	}
	if !strings.Contains(string(b), `"correlation": {`) {
		t.Fatalf("correlation missing:\n%s", b)
	}
}

func TestOverflowedTotalsStillRender(t *testing.T) {
	tbl := analysis.NewTable("Product", "Price", "Quantity")
	tbl.Append(analysis.Text("A"), analysis.Number(1e308), analysis.Number(10))
	res := analysis.Analyze(tbl, analysis.FixedMapping(), analysis.DefaultOptions())
	b, err := JSON(res, Meta{})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var doc struct {
		Overview struct {
			TotalSales *float64 `json:"total_sales"`
		} `json:"overview"`
		Aggregates []struct {
			Rows []struct {
				Value *float64 `json:"value"`
			} `json:"rows"`
		} `json:"aggregates"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, b)
	}
	if doc.Overview.TotalSales != nil || len(doc.Aggregates) != 1 || doc.Aggregates[0].Rows[0].Value != nil {
		t.Fatalf("overflowed values should be null:\n%s", b)
	}
	paths, err := WriteDashboard(t.TempDir(), res, DashboardOptions{Charts: true, Chart: ChartOptions{Width: 320, Height: 240}})
	if err != nil {
		t.Fatalf("WriteDashboard: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("wrote %v", paths)
	}
}

func TestWriteDashboard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	paths, err := WriteDashboard(dir, sampleResult(), DashboardOptions{
		Meta:   Meta{RunID: "abc"},
		Charts: true,
		Chart:  ChartOptions{Width: 320, Height: 240},
	})
	if err != nil {
		t.Fatalf("WriteDashboard: %v", err)
	}
	if len(paths) != 7 {
		t.Fatalf("wrote %d files: %v", len(paths), paths)
	}
	for _, p := range []string{SummaryFile, ResultFile, WorkbookFile, filepath.Join(ChartsDir, "monthly_sales.png")} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
	}
	md, _ := os.ReadFile(filepath.Join(dir, SummaryFile))
	if !strings.Contains(string(md), "Total Sales: 43.00") {
		t.Fatalf("summary:\n%s", md)
	}
}
