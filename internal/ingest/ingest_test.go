package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/xuri/excelize/v2"
)

const salesCSV = "Product,Category,Region,Price,Quantity,Month\n" +
	"A,X,E,10,2,Jan\n" +
	"B,X,W,5,4,Feb\n"

func TestReadCSVInfersTypes(t *testing.T) {
	tbl, err := Read("sales.csv", strings.NewReader(salesCSV), DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := strings.Join(tbl.Columns, ","); got != "Product,Category,Region,Price,Quantity,Month" {
		t.Fatalf("columns = %s", got)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d", tbl.Len())
	}
	if k := tbl.ColumnKind("Price"); k != analysis.KindNumber {
		t.Fatalf("Price kind = %v", k)
	}
	if k := tbl.ColumnKind("Month"); k != analysis.KindText {
		t.Fatalf("Month kind = %v", k)
	}
	if v := tbl.Rows[1]["Quantity"]; v.Num != 4 {
		t.Fatalf("row 1 quantity = %+v", v)
	}
}

func TestReadCSVNullsAndMixedColumns(t *testing.T) {
	in := "id,amount,code\n1,10.5,A1\n2,,7\n3,NA,B2\n4,n/a,\n"
	tbl, err := Read("x.csv", strings.NewReader(in), DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if k := tbl.ColumnKind("amount"); k != analysis.KindNumber {
		t.Fatalf("amount kind = %v", k)
	}
	for i := 1; i < 4; i++ {
		if !tbl.Rows[i]["amount"].IsNull() {
			t.Fatalf("amount row %d should be null: %+v", i, tbl.Rows[i]["amount"])
		}
	}
	// a column mixing numbers and text keeps every value as text
	if k := tbl.ColumnKind("code"); k != analysis.KindText {
		t.Fatalf("code kind = %v", k)
	}
	if v := tbl.Rows[1]["code"]; v.Kind != analysis.KindText || v.Str != "7" {
		t.Fatalf("code row 1 = %+v", v)
	}
	if !tbl.Rows[3]["code"].IsNull() {
		t.Fatalf("code row 3 should be null")
	}
}

func TestReadCSVShortRowsAndHeaders(t *testing.T) {
	in := "\ufeffName,,Name\nfoo,1\n"
	tbl, err := Read("x.csv", strings.NewReader(in), DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := strings.Join(tbl.Columns, "|"); got != "Name|Unnamed: 1|Name.1" {
		t.Fatalf("columns = %q", got)
	}
	if !tbl.Rows[0]["Name.1"].IsNull() {
		t.Fatalf("padded cell should be null")
	}
}

func TestReadCSVQuotedHeaderAfterBOM(t *testing.T) {
	in := "\ufeff\"Product\";\"Price\";\"Quantity\"\nA;10;2\n"
	tbl, err := Read("s.csv", strings.NewReader(in), DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := strings.Join(tbl.Columns, "|"); got != "Product|Price|Quantity" {
		t.Fatalf("columns = %q", got)
	}
	if v := tbl.Rows[0]["Price"]; v.Kind != analysis.KindNumber || v.Num != 10 {
		t.Fatalf("price = %+v", v)
	}
	res := analysis.Analyze(tbl, analysis.FixedMapping(), analysis.DefaultOptions())
	if res.TopProducts == nil {
		t.Fatal("product role lost to the byte order mark")
	}
}

func TestReadCSVSniffsSemicolonAndLocale(t *testing.T) {
	in := "Product;Price;Quantity\nA;1.234,50;2\nB;0,5;4\n"
	opt := DefaultOptions()
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	tbl, err := Read("eu.csv", strings.NewReader(in), opt)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v := tbl.Rows[0]["Price"]; v.Kind != analysis.KindNumber || v.Num != 1234.5 {
		t.Fatalf("price = %+v", v)
	}
	if v := tbl.Rows[1]["Price"]; v.Num != 0.5 {
		t.Fatalf("price = %+v", v)
	}
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in       string
		dec, tho rune
		want     float64
		ok       bool
	}{
		{"12.5", '.', 0, 12.5, true},
		{"1,000", '.', 0, 0, false},
		{"1,000", '.', ',', 1000, true},
		{"1.000,25", 0, 0, 1000.25, true},
		{"1,000.25", 0, 0, 1000.25, true},
		{"3,5", 0, 0, 3.5, true},
		{"-2e3", '.', 0, -2000, true},
		{"12 500", '.', ' ', 12500, true},
		{"abc", '.', 0, 0, false},
		{"inf", '.', 0, 0, false},
		{"-Infinity", '.', 0, 0, false},
		{"NaN", '.', 0, 0, false},
	}
	for _, c := range cases {
		got, ok := parseNumeric(c.in, Options{DecimalSeparator: c.dec, ThousandsSeparator: c.tho})
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("parseNumeric(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestReadUnsupportedAndEmpty(t *testing.T) {
	if _, err := Read("notes.pdf", strings.NewReader("x"), DefaultOptions()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
	if _, err := Read("empty.csv", strings.NewReader(""), DefaultOptions()); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("err = %v, want ErrNoHeader", err)
	}
	if !Supported("a.TSV") || Supported("a.json") {
		t.Fatalf("Supported mismatch")
	}
}

func TestReadFileTSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sales.tsv")
	if err := os.WriteFile(p, []byte("Product\tPrice\nA\t3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := ReadFile(p, DefaultOptions())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(tbl.Columns) != 2 || tbl.Rows[0]["Price"].Num != 3 {
		t.Fatalf("table = %+v", tbl)
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet("Sales"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	rows := [][]any{
		{"Product", "Price", "Quantity"},
		{"A", 10, 2},
		{"B", 2.5, 4},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sales", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	p := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	return p
}

func TestReadXLSXSheetSelection(t *testing.T) {
	p := writeWorkbook(t)
	opt := DefaultOptions()
	opt.SheetName = "sales"
	tbl, err := ReadFile(p, opt)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if tbl.Len() != 2 || tbl.ColumnKind("Price") != analysis.KindNumber {
		t.Fatalf("table = %+v", tbl)
	}
	if v := tbl.Rows[1]["Price"].Num; v != 2.5 {
		t.Fatalf("price = %v", v)
	}

	opt.SheetName = "Missing"
	_, err = ReadFile(p, opt)
	if err == nil || !strings.Contains(err.Error(), "available sheets: Sheet1, Sales") {
		t.Fatalf("err = %v", err)
	}

	opt.SheetName = ""
	opt.SheetIndex = 2
	tbl, err = ReadFile(p, opt)
	if err != nil || tbl.Len() != 2 {
		t.Fatalf("by index: %v %+v", err, tbl)
	}
}
