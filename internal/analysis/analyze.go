package analysis

import (
	"errors"
	"fmt"
)

// Options controls one analysis run.
type Options struct {
	// TopN caps the top-products aggregate; 0 means the default of 5.
	TopN int
	// DescribeAll adds non-numeric columns to the descriptive statistics.
	DescribeAll bool
	// PreviewRows is how many leading rows to keep for display; negative disables.
	PreviewRows int
}

// DefaultOptions returns the settings of the dynamic dashboard.
func DefaultOptions() Options {
	return Options{TopN: 5, DescribeAll: true, PreviewRows: 5}
}

// Overview holds the headline metrics.
type Overview struct {
	Rows    int
	Columns int
	// TotalSales is meaningful only when HasTotalSales is true.
	TotalSales    float64
	HasTotalSales bool
}

// Result is the immutable outcome of one Analyze call. Aggregates whose
// preconditions failed are nil.
type Result struct {
	// Mapping holds the roles that were usable in this run.
	Mapping  ColumnMapping
	Columns  []string
	Overview Overview
	Stats    []ColumnStats

	TopProducts *Aggregate
	ByCategory  *Aggregate
	ByRegion    *Aggregate
	ByMonth     *Aggregate
	Corr        *CorrMatrix

	Preview []Row
	// Issues are the schema mismatches met along the way.
	Issues []error
}

// Err joins the recorded issues, or returns nil.
func (r *Result) Err() error { return errors.Join(r.Issues...) }

// Aggregates returns the present aggregates in display order.
func (r *Result) Aggregates() []*Aggregate {
	var out []*Aggregate
	for _, a := range []*Aggregate{r.TopProducts, r.ByCategory, r.ByRegion, r.ByMonth} {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// Aggregate names.
const (
	AggTopProducts = "top_products"
	AggByCategory  = "category_sales"
	AggByRegion    = "region_sales"
	AggByMonth     = "monthly_sales"
)

// Analyze computes the dashboard result for raw under mapping. It never fails:
// schema problems degrade the affected pieces to absent and are listed in
// Result.Issues. raw is not modified.
func Analyze(raw *Table, mapping ColumnMapping, opt Options) *Result {
	if raw == nil {
		raw = &Table{}
	}
	if opt.TopN <= 0 {
		opt.TopN = 5
	}
	res := &Result{Mapping: ColumnMapping{}}

	// Roles whose column is absent are dropped.
	res.Issues = append(res.Issues, mapping.Validate(raw)...)
	for _, r := range Roles() {
		if c, ok := mapping.Column(r); ok && raw.HasColumn(c) {
			res.Mapping[r] = c
		}
	}

	t := raw
	if derived, err := deriveTotalSales(raw, res.Mapping); err != nil {
		res.Issues = append(res.Issues, err)
	} else if derived != nil {
		t = derived
	}
	hasTotal := t != raw

	res.Columns = append([]string(nil), t.Columns...)
	res.Overview = Overview{Rows: t.Len(), Columns: len(t.Columns), HasTotalSales: hasTotal}
	if hasTotal {
		for _, row := range t.Rows {
			if v := row[TotalSalesColumn]; v.Kind == KindNumber {
				res.Overview.TotalSales += v.Num
			}
		}
	}

	res.Stats = describe(t, opt.DescribeAll)

	if hasTotal {
		if c, ok := res.Mapping.Column(RoleProduct); ok {
			res.TopProducts = topN(groupSum(t, AggTopProducts, c, TotalSalesColumn), opt.TopN)
		}
		if c, ok := res.Mapping.Column(RoleCategory); ok {
			res.ByCategory = groupSum(t, AggByCategory, c, TotalSalesColumn)
		}
		if c, ok := res.Mapping.Column(RoleRegion); ok {
			res.ByRegion = groupSum(t, AggByRegion, c, TotalSalesColumn)
		}
		if c, ok := res.Mapping.Column(RoleMonth); ok {
			res.ByMonth = groupSum(t, AggByMonth, c, TotalSalesColumn)
		}
	}

	res.Corr = correlate(t)

	if n := opt.PreviewRows; n > 0 {
		if n > t.Len() {
			n = t.Len()
		}
		res.Preview = make([]Row, n)
		for i := 0; i < n; i++ {
			cp := make(Row, len(t.Rows[i]))
			for k, v := range t.Rows[i] {
				cp[k] = v
			}
			res.Preview[i] = cp
		}
	}
	return res
}

// deriveTotalSales returns a copy of t with Total_Sales = price * quantity, or
// nil when either role is unset. A text operand fails the whole derivation.
func deriveTotalSales(t *Table, m ColumnMapping) (*Table, error) {
	priceCol, okP := m.Column(RolePrice)
	qtyCol, okQ := m.Column(RoleQuantity)
	if !okP || !okQ {
		return nil, nil
	}
	totals := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		p, q := r[priceCol], r[qtyCol]
		if p.Kind == KindText {
			return nil, notNumeric(RolePrice, priceCol, i, p)
		}
		if q.Kind == KindText {
			return nil, notNumeric(RoleQuantity, qtyCol, i, q)
		}
		if p.IsNull() || q.IsNull() {
			totals[i] = Null()
			continue
		}
		totals[i] = Number(p.Num * q.Num)
	}
	out := t.Clone()
	if !out.HasColumn(TotalSalesColumn) {
		out.Columns = append(out.Columns, TotalSalesColumn)
	}
	for i, r := range out.Rows {
		r[TotalSalesColumn] = totals[i]
	}
	return out, nil
}

func notNumeric(role Role, col string, row int, v Value) *SchemaMismatchError {
	return &SchemaMismatchError{Role: role, Column: col, Row: row, Reason: fmt.Sprintf("non-numeric value %q", v.Str)}
}
