package analysis

import (
	"math"
	"sort"
)

// ColumnStats is a describe-style summary of one column. Numeric statistics
// that cannot be computed are NaN.
type ColumnStats struct {
	Name  string
	Kind  Kind
	Count int
	// Numeric columns
	Mean, Std     float64
	Min, Max      float64
	Q25, Q50, Q75 float64
	// Non-numeric columns
	Unique int
	Top    string
	Freq   int
}

// Defined reports whether the column held any non-null value.
func (s ColumnStats) Defined() bool { return s.Count > 0 }

func describe(t *Table, all bool) []ColumnStats {
	out := make([]ColumnStats, 0, len(t.Columns))
	for _, c := range t.Columns {
		kind := t.ColumnKind(c)
		switch kind {
		case KindText:
			if all {
				out = append(out, describeText(c, t.Column(c)))
			}
		default:
			out = append(out, describeNumeric(c, kind, t.Column(c)))
		}
	}
	return out
}

func describeNumeric(name string, kind Kind, vals []Value) ColumnStats {
	nan := math.NaN()
	s := ColumnStats{Name: name, Kind: kind, Mean: nan, Std: nan, Min: nan, Max: nan, Q25: nan, Q50: nan, Q75: nan}
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.Kind == KindNumber {
			xs = append(xs, v.Num)
		}
	}
	s.Count = len(xs)
	if s.Count == 0 {
		return s
	}
	// Welford
	var mean, m2 float64
	for i, x := range xs {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	s.Mean = mean
	if s.Count > 1 {
		s.Std = math.Sqrt(m2 / float64(s.Count-1))
	}
	sort.Float64s(xs)
	s.Min = xs[0]
	s.Max = xs[len(xs)-1]
	s.Q25 = quantile(xs, 0.25)
	s.Q50 = quantile(xs, 0.5)
	s.Q75 = quantile(xs, 0.75)
	return s
}

func describeText(name string, vals []Value) ColumnStats {
	nan := math.NaN()
	s := ColumnStats{Name: name, Kind: KindText, Mean: nan, Std: nan, Min: nan, Max: nan, Q25: nan, Q50: nan, Q75: nan}
	counts := map[string]int{}
	var order []string
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		s.Count++
		k := v.String()
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	s.Unique = len(order)
	// most frequent; ties go to the value seen first
	for _, k := range order {
		if counts[k] > s.Freq {
			s.Top = k
			s.Freq = counts[k]
		}
	}
	return s
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
