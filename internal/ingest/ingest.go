package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/logging"
)

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported file format")

// ErrNoHeader indicates the input has no header row.
var ErrNoHeader = errors.New("no header row")

// Options controls parsing and type inference.
type Options struct {
	// Delimiter for CSV. If 0, sniffs among ',', ';', '\t' from the header line.
	Delimiter rune
	// Numeric parsing locale. DecimalSeparator 0 auto-detects per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// XLSX sheet selection: by name, else by 1-based index.
	SheetName  string
	SheetIndex int
}

// DefaultOptions parses numbers the way a spreadsheet export usually writes them: '.' decimals, no grouping.
func DefaultOptions() Options {
	return Options{DecimalSeparator: '.', SheetIndex: 1}
}

// Reader parses one file format into a raw table.
type Reader interface {
	CanRead(filename string) bool
	Read(r io.Reader, opt Options) (*analysis.Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// Supported reports whether some registered reader accepts filename.
func Supported(filename string) bool {
	return lookup(filename) != nil
}

func lookup(filename string) Reader {
	for _, r := range registry {
		if r.CanRead(filename) {
			return r
		}
	}
	return nil
}

// Read picks a reader by the file name's extension and parses r.
func Read(filename string, r io.Reader, opt Options) (*analysis.Table, error) {
	rd := lookup(filename)
	if rd == nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), ErrUnsupported)
	}
	t, err := rd.Read(r, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), err)
	}
	logging.Logger().Debug("ingested table", "file", filepath.Base(filename), "rows", t.Len(), "columns", len(t.Columns))
	return t, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string, opt Options) (*analysis.Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Read(path, bytes.NewReader(b), opt)
}

// build turns a header and string records into a typed table. Each column is
// numeric when every non-null cell parses as a number, text otherwise.
func build(header []string, records [][]string, opt Options) *analysis.Table {
	cols := uniqueHeaders(header)
	t := analysis.NewTable(cols...)
	t.Rows = make([]analysis.Row, len(records))
	for i := range records {
		t.Rows[i] = make(analysis.Row, len(cols))
	}
	for j, name := range cols {
		numeric := true
		nums := make([]float64, len(records))
		for i, rec := range records {
			s := cell(rec, j)
			if isNullToken(s) {
				continue
			}
			x, ok := parseNumeric(s, opt)
			if !ok {
				numeric = false
				break
			}
			nums[i] = x
		}
		// null cells stay absent until Normalize fills them
		for i, rec := range records {
			s := cell(rec, j)
			switch {
			case isNullToken(s):
			case numeric:
				t.Rows[i][name] = analysis.Number(nums[i])
			default:
				t.Rows[i][name] = analysis.Text(strings.TrimSpace(s))
			}
		}
	}
	t.Normalize()
	return t
}

func cell(rec []string, j int) string {
	if j < len(rec) {
		return rec[j]
	}
	return ""
}

var nullTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "#n/a": {},
}

func isNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// uniqueHeaders names blank headers "Unnamed: i" and suffixes repeats with .1, .2, ...
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	used := map[string]bool{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}
