package analysis

import (
	"math"
	"testing"
)

func TestCorrelationSymmetricUnitDiagonal(t *testing.T) {
	raw := NewTable("x", "y", "z", "label")
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2, 4, 5, 4, 5}
	zs := []float64{5, 4, 3, 2, 1}
	for i := range xs {
		raw.Append(Number(xs[i]), Number(ys[i]), Number(zs[i]), Text("l"))
	}
	m := correlate(raw)
	if m == nil || len(m.Columns) != 3 {
		t.Fatalf("matrix = %+v", m)
	}
	for i := range m.Columns {
		if m.Values[i][i] != 1 {
			t.Fatalf("diag[%d] = %v", i, m.Values[i][i])
		}
		for j := range m.Columns {
			if m.Values[i][j] != m.Values[j][i] {
				t.Fatalf("not symmetric at %d,%d", i, j)
			}
		}
	}
	if r, _ := m.At("x", "z"); !approx(r, -1) {
		t.Fatalf("r(x,z) = %v, want -1", r)
	}
	// r(x,y) = 0.7745966692
	if r, _ := m.At("x", "y"); math.Abs(r-0.7745966692) > 1e-9 {
		t.Fatalf("r(x,y) = %v", r)
	}
}

func TestCorrelationPairwiseComplete(t *testing.T) {
	raw := NewTable("a", "b")
	raw.Append(Number(1), Number(10))
	raw.Append(Number(2), Null())
	raw.Append(Number(3), Number(30))
	raw.Append(Null(), Number(99))
	raw.Append(Number(4), Number(40))
	m := correlate(raw)
	if r, _ := m.At("a", "b"); !approx(r, 1) {
		t.Fatalf("r = %v, want 1", r)
	}
}

func TestCorrelationZeroVariance(t *testing.T) {
	raw := NewTable("a", "flat")
	raw.Append(Number(1), Number(7))
	raw.Append(Number(2), Number(7))
	raw.Append(Number(3), Number(7))
	m := correlate(raw)
	if m.Values[0][0] != 1 {
		t.Fatalf("diag a = %v", m.Values[0][0])
	}
	if !math.IsNaN(m.Values[1][1]) || !math.IsNaN(m.Values[0][1]) {
		t.Fatalf("flat column entries should be NaN: %v", m.Values)
	}
}

func TestCorrelationSingleNumericColumnIsEmpty(t *testing.T) {
	raw := NewTable("only", "name")
	raw.Append(Number(1), Text("a"))
	raw.Append(Number(2), Text("b"))
	if m := correlate(raw); m != nil {
		t.Fatalf("matrix = %+v, want nil", m)
	}
	res := Analyze(raw, ColumnMapping{}, DefaultOptions())
	if res.Corr != nil {
		t.Fatalf("result corr = %+v, want nil", res.Corr)
	}
	found := false
	for _, n := range res.Notices() {
		if n == "no numeric columns available for correlation" {
			found = true
		}
	}
	if !found {
		t.Fatalf("notices = %v", res.Notices())
	}
}
