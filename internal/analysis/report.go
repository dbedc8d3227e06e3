package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Notices returns informational messages for the pieces of the dashboard that
// could not be produced.
func (r *Result) Notices() []string {
	var out []string
	for _, err := range r.Issues {
		out = append(out, err.Error())
	}
	if !r.Overview.HasTotalSales {
		out = append(out, "total sales unavailable: map both price and quantity to numeric columns")
	}
	need := []struct {
		role Role
		agg  *Aggregate
		what string
	}{
		{RoleProduct, r.TopProducts, "top products"},
		{RoleCategory, r.ByCategory, "sales by category"},
		{RoleRegion, r.ByRegion, "sales by region"},
		{RoleMonth, r.ByMonth, "monthly sales"},
	}
	for _, n := range need {
		if n.agg != nil {
			continue
		}
		if _, ok := r.Mapping.Column(n.role); !ok {
			out = append(out, fmt.Sprintf("%s unavailable: no %s column selected", n.what, n.role))
		} else if r.Overview.HasTotalSales {
			out = append(out, fmt.Sprintf("%s unavailable", n.what))
		}
	}
	if r.Corr == nil {
		out = append(out, "no numeric columns available for correlation")
	}
	return out
}

// Markdown renders a compact report of the result.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[OVERVIEW]\n")
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Overview.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", r.Overview.Columns))
	if r.Overview.HasTotalSales {
		b.WriteString(fmt.Sprintf("Total Sales: %s\n", FormatMoney(r.Overview.TotalSales)))
	}
	b.WriteString(fmt.Sprintf("Mapping: %s\n", r.Mapping))

	if len(r.Stats) > 0 {
		b.WriteString("\n[SUMMARY STATISTICS]\n")
		for _, s := range r.Stats {
			b.WriteString(fmt.Sprintf("- %s: ", safeName(s.Name)))
			switch {
			case s.Kind == KindText:
				b.WriteString(fmt.Sprintf("text (count %d, unique %d", s.Count, s.Unique))
				if s.Count > 0 {
					b.WriteString(fmt.Sprintf(", top %s ×%d", safeVal(s.Top), s.Freq))
				}
				b.WriteString(")")
			case !s.Defined():
				b.WriteString("no values")
			default:
				b.WriteString(fmt.Sprintf("numeric (count %d) mean %s, std %s, min %s, 25%% %s, 50%% %s, 75%% %s, max %s",
					s.Count, num(s.Mean), num(s.Std), num(s.Min), num(s.Q25), num(s.Q50), num(s.Q75), num(s.Max)))
			}
			b.WriteString("\n")
		}
	}

	titles := map[string]string{
		AggTopProducts: "TOP PRODUCTS",
		AggByCategory:  "SALES BY CATEGORY",
		AggByRegion:    "SALES BY REGION",
		AggByMonth:     "MONTHLY SALES",
	}
	for _, a := range r.Aggregates() {
		b.WriteString(fmt.Sprintf("\n[%s]\n", titles[a.Name]))
		if len(a.Rows) == 0 {
			b.WriteString("(no groups)\n")
		}
		for _, kv := range a.Rows {
			b.WriteString(fmt.Sprintf("- %s: %s\n", safeVal(kv.Key), FormatMoney(kv.Value)))
		}
	}

	if r.Corr != nil {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if v := r.Corr.Values[i][j]; !math.IsNaN(v) {
					pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: v})
				}
			}
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
		})
		if len(pairs) == 0 {
			b.WriteString("(no computable pairs)\n")
		}
		maxp := 10
		if len(pairs) < maxp {
			maxp = len(pairs)
		}
		for i := 0; i < maxp; i++ {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pairs[i].A, pairs[i].B, pairs[i].R))
		}
	}

	if len(r.Preview) > 0 {
		b.WriteString("\n[DATA PREVIEW]\n")
		b.WriteString("| ")
		for i, c := range r.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c))
		}
		b.WriteString(" |\n| ")
		for i := range r.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Preview {
			b.WriteString("| ")
			for i, c := range r.Columns {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := row[c].String()
				if r := []rune(val); len(r) > 80 {
					val = string(r[:77]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}

	if notes := r.Notices(); len(notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func num(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", f)
}

// FormatMoney renders f with two decimals and thousands separators, e.g. 12,345.60.
// Non-finite values render as "n/a".
func FormatMoney(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	s := fmt.Sprintf("%.2f", math.Abs(f))
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if f < 0 {
		b.WriteByte('-')
	}
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
