package analysis

import (
	"math"
	"strconv"
)

// Kind is the dynamic type of a cell value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "null"
	}
}

// Value is a single cell: null, a number or a piece of text.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// Null returns the null value.
func Null() Value { return Value{} }

// Number wraps a float. NaN is stored as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Kind: KindNumber, Num: f}
}

// Text wraps a string.
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the value the way it is used as a group key.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Str
	default:
		return ""
	}
}

// Row maps every column name of its table to a value.
type Row map[string]Value

// Table is the raw tabular input: ordered columns and ordered rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Append adds a row given positionally. Missing trailing cells become null.
func (t *Table) Append(vals ...Value) {
	r := make(Row, len(t.Columns))
	for i, c := range t.Columns {
		if i < len(vals) {
			r[c] = vals[i]
		} else {
			r[c] = Null()
		}
	}
	t.Rows = append(t.Rows, r)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is a declared column.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Normalize makes every row carry every declared column, filling nulls and
// dropping keys that are not declared.
func (t *Table) Normalize() {
	for i, r := range t.Rows {
		if r == nil {
			r = make(Row, len(t.Columns))
			t.Rows[i] = r
		}
		for _, c := range t.Columns {
			if _, ok := r[c]; !ok {
				r[c] = Null()
			}
		}
		if len(r) > len(t.Columns) {
			for k := range r {
				if !t.HasColumn(k) {
					delete(r, k)
				}
			}
		}
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return &Table{}
	}
	out := NewTable(t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		cp := make(Row, len(r)+1)
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Column returns the values of one column in row order.
func (t *Table) Column(name string) []Value {
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}

// ColumnKind classifies a column: numeric when every non-null value is a
// number, text when any value is text, null when it holds no values at all.
func (t *Table) ColumnKind(name string) Kind {
	kind := KindNull
	for _, r := range t.Rows {
		switch r[name].Kind {
		case KindText:
			return KindText
		case KindNumber:
			kind = KindNumber
		}
	}
	return kind
}

// NumericColumns lists, in column order, the columns whose values are uniformly numeric.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if t.ColumnKind(c) == KindNumber {
			out = append(out, c)
		}
	}
	return out
}
