// Package render turns an analysis result into files: PNG charts, an XLSX
// workbook, a JSON document and the Markdown report.
package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartOptions sizes the rendered charts in pixels.
type ChartOptions struct {
	Width  int
	Height int
}

// DefaultChartOptions returns the dashboard chart size.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 1024, Height: 512}
}

func (o ChartOptions) normalized() ChartOptions {
	d := DefaultChartOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	return o
}

var palette = []drawing.Color{
	drawing.ColorFromHex("4472C4"),
	drawing.ColorFromHex("ED7D31"),
	drawing.ColorFromHex("A5A5A5"),
	drawing.ColorFromHex("FFC000"),
	drawing.ColorFromHex("5B9BD5"),
	drawing.ColorFromHex("70AD47"),
}

func color(i int) drawing.Color { return palette[i%len(palette)] }

// ChartNames lists the charts in dashboard order.
func ChartNames() []string {
	return []string{analysis.AggTopProducts, analysis.AggByCategory, analysis.AggByRegion, analysis.AggByMonth}
}

// Charts renders every chart whose aggregate is present and has a positive
// value. Keys are the aggregate names.
func Charts(res *analysis.Result, opt ChartOptions) (map[string][]byte, error) {
	out := map[string][]byte{}
	for _, name := range ChartNames() {
		png, err := Chart(res, name, opt)
		if err != nil {
			return nil, err
		}
		if png == nil {
			logging.Logger().Debug("chart skipped", "chart", name)
			continue
		}
		out[name] = png
	}
	return out, nil
}

// Chart renders a single chart by name. It returns nil bytes when the
// aggregate is absent or has nothing to draw.
func Chart(res *analysis.Result, name string, opt ChartOptions) ([]byte, error) {
	opt = opt.normalized()
	var agg *analysis.Aggregate
	var draw func(*analysis.Aggregate, ChartOptions) ([]byte, error)
	switch name {
	case analysis.AggTopProducts:
		agg, draw = res.TopProducts, func(a *analysis.Aggregate, o ChartOptions) ([]byte, error) {
			return barChart("Top Products by Sales", a, o)
		}
	case analysis.AggByCategory:
		agg, draw = res.ByCategory, donutChart
	case analysis.AggByRegion:
		agg, draw = res.ByRegion, func(a *analysis.Aggregate, o ChartOptions) ([]byte, error) {
			return barChart("Sales by Region", a, o)
		}
	case analysis.AggByMonth:
		agg, draw = res.ByMonth, lineChart
	default:
		return nil, fmt.Errorf("unknown chart: %s", name)
	}
	if !drawable(agg) {
		return nil, nil
	}
	b, err := draw(agg, opt)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return b, nil
}

// drawable reports whether a has a positive value and no overflowed ones.
func drawable(a *analysis.Aggregate) bool {
	if a == nil {
		return false
	}
	positive := false
	for _, kv := range a.Rows {
		if math.IsInf(kv.Value, 0) || math.IsNaN(kv.Value) {
			return false
		}
		if kv.Value > 0 {
			positive = true
		}
	}
	return positive
}

// valueRange returns a y range that always includes zero and never collapses.
func valueRange(a *analysis.Aggregate) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, kv := range a.Rows {
		lo = math.Min(lo, kv.Value)
		hi = math.Max(hi, kv.Value)
	}
	if hi <= lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi * 1.05}
}

func barChart(title string, a *analysis.Aggregate, opt ChartOptions) ([]byte, error) {
	bars := make([]chart.Value, 0, len(a.Rows))
	for i, kv := range a.Rows {
		bars = append(bars, chart.Value{
			Label: kv.Key,
			Value: kv.Value,
			Style: chart.Style{FillColor: color(i), StrokeColor: color(i)},
		})
	}
	barWidth := opt.Width / (2*len(bars) + 1)
	if barWidth > 120 {
		barWidth = 120
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      opt.Width,
		Height:     opt.Height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Range:          valueRange(a),
			ValueFormatter: func(v interface{}) string { return moneyTick(v) },
		},
		Bars: bars,
	}
	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// donutChart draws the positive groups only; shares of a negative total are meaningless.
func donutChart(a *analysis.Aggregate, opt ChartOptions) ([]byte, error) {
	var values []chart.Value
	for i, kv := range a.Rows {
		if kv.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: kv.Key,
			Value: kv.Value,
			Style: chart.Style{FillColor: color(i)},
		})
	}
	dc := chart.DonutChart{
		Title:  "Sales by Category",
		Width:  opt.Height,
		Height: opt.Height,
		Values: values,
	}
	var buf bytes.Buffer
	if err := dc.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// lineChart plots the groups in their given order; keys become tick labels.
func lineChart(a *analysis.Aggregate, opt ChartOptions) ([]byte, error) {
	n := len(a.Rows)
	xs := make([]float64, n)
	ys := make([]float64, n)
	ticks := make([]chart.Tick, n)
	for i, kv := range a.Rows {
		xs[i] = float64(i)
		ys[i] = kv.Value
		ticks[i] = chart.Tick{Value: float64(i), Label: kv.Key}
	}
	// a single month still needs a non-empty x range
	xr := &chart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5}
	ch := chart.Chart{
		Title:      "Monthly Sales Trend",
		Width:      opt.Width,
		Height:     opt.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 28}},
		XAxis:      chart.XAxis{Range: xr, Ticks: ticks},
		YAxis: chart.YAxis{
			Range:          valueRange(a),
			ValueFormatter: func(v interface{}) string { return moneyTick(v) },
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    a.By,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: color(0),
					StrokeWidth: 2,
					DotColor:    color(0),
					DotWidth:    4,
				},
			},
		},
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func moneyTick(v interface{}) string {
	if f, ok := v.(float64); ok {
		return analysis.FormatMoney(f)
	}
	return fmt.Sprint(v)
}
