package render

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/xuri/excelize/v2"
)

// Sheet titles of the exported workbook, per aggregate name.
var aggregateSheets = map[string]string{
	analysis.AggTopProducts: "Top Products",
	analysis.AggByCategory:  "Category Sales",
	analysis.AggByRegion:    "Region Sales",
	analysis.AggByMonth:     "Monthly Sales",
}

const (
	sheetOverview    = "Overview"
	sheetStatistics  = "Statistics"
	sheetPreview     = "Preview"
	sheetCorrelation = "Correlation"
)

// Workbook builds the dashboard workbook. Sheets: Overview, Statistics,
// Preview, one per present aggregate, and Correlation when a matrix exists.
// The caller owns the returned file and must Close it.
func Workbook(res *analysis.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	w := &workbook{f: f}
	w.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	money := "#,##0.00"
	w.money, _ = f.NewStyle(&excelize.Style{CustomNumFmt: &money})

	w.overview(res)
	w.statistics(res)
	w.preview(res)
	for _, a := range res.Aggregates() {
		w.aggregate(a)
	}
	if res.Corr != nil {
		w.correlation(res.Corr)
	}
	if w.err != nil {
		_ = f.Close()
		return nil, w.err
	}
	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(sheetOverview); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// WorkbookBytes renders the workbook as XLSX bytes.
func WorkbookBytes(res *analysis.Result) ([]byte, error) {
	f, err := Workbook(res)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// workbook accumulates the first error so sheet writers stay linear.
type workbook struct {
	f      *excelize.File
	header int
	money  int
	err    error
}

func (w *workbook) sheet(name string) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(name); err != nil {
		w.err = fmt.Errorf("new sheet %s: %w", name, err)
	}
}

func (w *workbook) row(sheet string, r int, vals []interface{}) {
	if w.err != nil {
		return
	}
	cell, _ := excelize.CoordinatesToCellName(1, r)
	if err := w.f.SetSheetRow(sheet, cell, &vals); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, r, err)
	}
}

func (w *workbook) headerRow(sheet string, cols []string) {
	vals := make([]interface{}, len(cols))
	for i, c := range cols {
		vals[i] = c
	}
	w.row(sheet, 1, vals)
	if w.err != nil || len(cols) == 0 {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		w.err = fmt.Errorf("style %s header: %w", sheet, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	_ = w.f.SetColWidth(sheet, "A", lastCol, 16)
}

func (w *workbook) overview(res *analysis.Result) {
	w.sheet(sheetOverview)
	w.headerRow(sheetOverview, []string{"Metric", "Value"})
	rows := [][]interface{}{
		{"Rows", res.Overview.Rows},
		{"Columns", res.Overview.Columns},
	}
	if res.Overview.HasTotalSales {
		rows = append(rows, []interface{}{"Total Sales", cellNum(res.Overview.TotalSales)})
	}
	rows = append(rows, []interface{}{"Mapping", res.Mapping.String()})
	for _, n := range res.Notices() {
		rows = append(rows, []interface{}{"Note", n})
	}
	for i, r := range rows {
		w.row(sheetOverview, i+2, r)
	}
	if res.Overview.HasTotalSales && w.err == nil {
		_ = w.f.SetCellStyle(sheetOverview, "B4", "B4", w.money)
	}
	if w.err == nil {
		_ = w.f.SetColWidth(sheetOverview, "B", "B", 60)
	}
}

func (w *workbook) statistics(res *analysis.Result) {
	w.sheet(sheetStatistics)
	w.headerRow(sheetStatistics, []string{"Column", "Type", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max", "Unique", "Top", "Freq"})
	for i, s := range res.Stats {
		vals := []interface{}{s.Name, s.Kind.String(), s.Count}
		if s.Kind == analysis.KindText {
			vals = append(vals, nil, nil, nil, nil, nil, nil, nil, s.Unique, s.Top, s.Freq)
		} else {
			vals = append(vals, cellNum(s.Mean), cellNum(s.Std), cellNum(s.Min), cellNum(s.Q25),
				cellNum(s.Q50), cellNum(s.Q75), cellNum(s.Max))
		}
		w.row(sheetStatistics, i+2, vals)
	}
}

func (w *workbook) preview(res *analysis.Result) {
	w.sheet(sheetPreview)
	w.headerRow(sheetPreview, res.Columns)
	for i, r := range res.Preview {
		vals := make([]interface{}, len(res.Columns))
		for j, c := range res.Columns {
			vals[j] = cellValue(r[c])
		}
		w.row(sheetPreview, i+2, vals)
	}
}

func (w *workbook) aggregate(a *analysis.Aggregate) {
	name := aggregateSheets[a.Name]
	if name == "" {
		name = a.Name
	}
	w.sheet(name)
	w.headerRow(name, []string{a.By, "Total Sales"})
	for i, kv := range a.Rows {
		w.row(name, i+2, []interface{}{kv.Key, cellNum(kv.Value)})
	}
	if w.err == nil && len(a.Rows) > 0 {
		last := fmt.Sprintf("B%d", len(a.Rows)+1)
		_ = w.f.SetCellStyle(name, "B2", last, w.money)
	}
}

// correlation writes the matrix with a blue-white-red colour scale over [-1, 1].
func (w *workbook) correlation(m *analysis.CorrMatrix) {
	w.sheet(sheetCorrelation)
	w.headerRow(sheetCorrelation, append([]string{""}, m.Columns...))
	for i, c := range m.Columns {
		vals := []interface{}{c}
		for _, v := range m.Values[i] {
			vals = append(vals, cellNum(v))
		}
		w.row(sheetCorrelation, i+2, vals)
	}
	if w.err != nil {
		return
	}
	n := len(m.Columns)
	last, _ := excelize.CoordinatesToCellName(n+1, n+1)
	err := w.f.SetConditionalFormat(sheetCorrelation, "B2:"+last, []excelize.ConditionalFormatOptions{{
		Type:     "3_color_scale",
		Criteria: "=",
		MinType:  "num",
		MidType:  "num",
		MaxType:  "num",
		MinValue: "-1",
		MidValue: "0",
		MaxValue: "1",
		MinColor: "#2166AC",
		MidColor: "#F7F7F7",
		MaxColor: "#B2182B",
	}})
	if err != nil {
		w.err = fmt.Errorf("correlation colour scale: %w", err)
	}
}

// cellNum leaves undefined statistics blank.
func cellNum(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func cellValue(v analysis.Value) interface{} {
	switch v.Kind {
	case analysis.KindNumber:
		return cellNum(v.Num)
	case analysis.KindText:
		return v.Str
	default:
		return nil
	}
}
