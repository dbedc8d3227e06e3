package cmd

import (
	"fmt"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	cfgpkg "github.com/KaramelBytes/salesdash/internal/config"
	"github.com/KaramelBytes/salesdash/internal/ingest"
	"github.com/KaramelBytes/salesdash/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runFlags are the flags shared by analyze, analyze-batch and columns.
// They override the configuration only when set on the command line.
type runFlags struct {
	mode        string
	mapping     []string
	topN        int
	previewRows int
	describeAll bool
	delimiter   string
	decimal     string
	thousands   string
	sheetName   string
	sheetIndex  int
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.mode, "mode", "", "column mapping mode: fixed | dynamic (default from config)")
	fs.StringArrayVar(&f.mapping, "map", nil, "role=column assignment, repeatable (e.g. --map price='Unit Price'); role=- unsets")
	fs.IntVar(&f.topN, "top-n", 5, "number of products in the top-products table")
	fs.IntVar(&f.previewRows, "preview-rows", 5, "number of leading rows in the data preview (0 disables)")
	fs.BoolVar(&f.describeAll, "describe-all", true, "include text columns in summary statistics")
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	fs.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'|'auto'")
	fs.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

// runSettings is everything one analysis run needs.
type runSettings struct {
	fixed    bool
	mapping  analysis.ColumnMapping // explicit dynamic assignments
	unset    map[analysis.Role]bool
	ingest   ingest.Options
	analysis analysis.Options
	charts   bool
	chart    render.ChartOptions
}

// resolve merges config and changed flags into run settings.
func (f *runFlags) resolve(cmd *cobra.Command, c *cfgpkg.Global) (*runSettings, error) {
	changed := cmd.Flags().Changed
	eff := *c
	if changed("mode") {
		eff.Mode = f.mode
	}
	if changed("top-n") {
		eff.TopN = f.topN
	}
	if changed("preview-rows") {
		eff.PreviewRows = f.previewRows
	}
	if changed("delimiter") {
		eff.Delimiter = f.delimiter
	}
	if changed("decimal") {
		eff.Decimal = f.decimal
	}
	if changed("thousands") {
		eff.Thousands = f.thousands
	}
	if changed("sheet-name") {
		eff.SheetName = f.sheetName
	}
	if changed("sheet-index") {
		eff.SheetIndex = f.sheetIndex
	}
	if err := eff.Validate(); err != nil {
		return nil, err
	}

	s := &runSettings{
		fixed:  eff.Mode == cfgpkg.ModeFixed,
		charts: eff.Charts,
		chart:  render.ChartOptions{Width: eff.ChartWidth, Height: eff.ChartHeight},
	}
	var err error
	if s.ingest, err = ingestOptions(&eff); err != nil {
		return nil, err
	}
	s.analysis = analysis.Options{TopN: eff.TopN, DescribeAll: eff.DescribeAll, PreviewRows: eff.PreviewRows}
	// the fixed dashboard describes numeric columns only
	if s.fixed {
		s.analysis.DescribeAll = false
	}
	if changed("describe-all") {
		s.analysis.DescribeAll = f.describeAll
	}
	if eff.PreviewRows == 0 {
		s.analysis.PreviewRows = -1
	}

	s.mapping = analysis.ColumnMapping{}
	s.unset = map[analysis.Role]bool{}
	if err := s.assign(eff.MappingEntries()); err != nil {
		return nil, fmt.Errorf("config mapping: %w", err)
	}
	if len(f.mapping) > 0 {
		if s.fixed {
			return nil, fmt.Errorf("--map requires --mode dynamic")
		}
		if err := s.assign(f.mapping); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// assign overlays role=column entries; explicitly unset roles are remembered
// so guessed headers cannot fill them.
func (s *runSettings) assign(entries []string) error {
	m, err := analysis.ParseMapping(entries)
	if err != nil {
		return err
	}
	for r, c := range m {
		if c == "" {
			delete(s.mapping, r)
			s.unset[r] = true
			continue
		}
		s.mapping[r] = c
		delete(s.unset, r)
	}
	return nil
}

// mappingFor returns the mapping used for table t: the literal headers in
// fixed mode, otherwise guessed headers overlaid with explicit assignments.
// An explicitly unset role stays unset even when a header would match.
func (s *runSettings) mappingFor(t *analysis.Table) analysis.ColumnMapping {
	if s.fixed {
		return analysis.FixedMapping()
	}
	m := analysis.GuessMapping(t.Columns)
	for r := range s.unset {
		delete(m, r)
	}
	for r, c := range s.mapping {
		m[r] = c
	}
	return m
}

func ingestOptions(c *cfgpkg.Global) (ingest.Options, error) {
	opt := ingest.DefaultOptions()
	var err error
	if opt.Delimiter, err = cfgpkg.ParseDelimiter(c.Delimiter); err != nil {
		return opt, err
	}
	if opt.DecimalSeparator, err = cfgpkg.ParseDecimal(c.Decimal); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = cfgpkg.ParseThousands(c.Thousands); err != nil {
		return opt, err
	}
	opt.SheetName = c.SheetName
	if c.SheetIndex > 0 {
		opt.SheetIndex = c.SheetIndex
	}
	return opt, nil
}
