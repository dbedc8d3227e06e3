package analysis

import "math"

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
// Entries that cannot be computed (fewer than two paired values, zero variance) are NaN.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// At returns the coefficient for columns a and b.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ia = i
		}
		if c == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

// correlate computes the matrix over the table's numeric columns, using for
// each pair only the rows where both values are present. It returns nil when
// fewer than two numeric columns exist.
func correlate(t *Table) *CorrMatrix {
	cols := t.NumericColumns()
	n := len(cols)
	if n < 2 {
		return nil
	}
	series := make([][]Value, n)
	for i, c := range cols {
		series[i] = t.Column(c)
	}
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		mat[a][a] = pearson(series[a], series[a])
		if !math.IsNaN(mat[a][a]) {
			mat[a][a] = 1
		}
		for b := a + 1; b < n; b++ {
			r := pearson(series[a], series[b])
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return &CorrMatrix{Columns: cols, Values: mat}
}

// pearson computes the pairwise-complete correlation of xs and ys.
func pearson(xs, ys []Value) float64 {
	var n, sumX, sumY float64
	for i := range xs {
		if xs[i].Kind != KindNumber || ys[i].Kind != KindNumber {
			continue
		}
		n++
		sumX += xs[i].Num
		sumY += ys[i].Num
	}
	if n < 2 {
		return math.NaN()
	}
	mx, my := sumX/n, sumY/n
	var sxx, syy, sxy float64
	for i := range xs {
		if xs[i].Kind != KindNumber || ys[i].Kind != KindNumber {
			continue
		}
		dx := xs[i].Num - mx
		dy := ys[i].Num - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	denom := math.Sqrt(sxx * syy)
	if denom == 0 {
		return math.NaN()
	}
	r := sxy / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}
