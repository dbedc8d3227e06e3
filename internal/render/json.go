package render

import (
	"math"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/utils"
)

// Document is the JSON shape of a result. Undefined numbers are null.
type Document struct {
	RunID       string            `json:"run_id,omitempty"`
	Source      string            `json:"source,omitempty"`
	Mapping     map[string]string `json:"mapping"`
	Columns     []string          `json:"columns"`
	Overview    OverviewDoc       `json:"overview"`
	Statistics  []StatsDoc        `json:"statistics"`
	Aggregates  []AggregateDoc    `json:"aggregates"`
	Correlation *CorrelationDoc   `json:"correlation"`
	Preview     []map[string]any  `json:"preview"`
	Issues      []string          `json:"issues"`
	Notices     []string          `json:"notices"`
}

type OverviewDoc struct {
	Rows       int      `json:"rows"`
	Columns    int      `json:"columns"`
	TotalSales *float64 `json:"total_sales"`
}

type StatsDoc struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q25    *float64 `json:"25%"`
	Q50    *float64 `json:"50%"`
	Q75    *float64 `json:"75%"`
	Max    *float64 `json:"max"`
	Unique *int     `json:"unique"`
	Top    *string  `json:"top"`
	Freq   *int     `json:"freq"`
}

type AggregateDoc struct {
	Name string     `json:"name"`
	By   string     `json:"by"`
	Rows []GroupDoc `json:"rows"`
}

type GroupDoc struct {
	Key   string   `json:"key"`
	Value *float64 `json:"value"`
}

type CorrelationDoc struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// Meta identifies the run a document belongs to.
type Meta struct {
	RunID  string
	Source string
}

// NewDocument converts res into its JSON shape.
func NewDocument(res *analysis.Result, meta Meta) *Document {
	d := &Document{
		RunID:      meta.RunID,
		Source:     meta.Source,
		Mapping:    map[string]string{},
		Columns:    append([]string{}, res.Columns...),
		Statistics: []StatsDoc{},
		Aggregates: []AggregateDoc{},
		Preview:    []map[string]any{},
		Issues:     []string{},
		Notices:    res.Notices(),
	}
	for _, r := range analysis.Roles() {
		if c, ok := res.Mapping.Column(r); ok {
			d.Mapping[string(r)] = c
		}
	}
	d.Overview = OverviewDoc{Rows: res.Overview.Rows, Columns: res.Overview.Columns}
	if res.Overview.HasTotalSales {
		d.Overview.TotalSales = ptr(res.Overview.TotalSales)
	}
	for _, s := range res.Stats {
		sd := StatsDoc{Name: s.Name, Type: s.Kind.String(), Count: s.Count}
		if s.Kind == analysis.KindText {
			u, f, top := s.Unique, s.Freq, s.Top
			sd.Unique = &u
			if s.Count > 0 {
				sd.Top = &top
				sd.Freq = &f
			}
		} else {
			sd.Mean, sd.Std = ptr(s.Mean), ptr(s.Std)
			sd.Min, sd.Max = ptr(s.Min), ptr(s.Max)
			sd.Q25, sd.Q50, sd.Q75 = ptr(s.Q25), ptr(s.Q50), ptr(s.Q75)
		}
		d.Statistics = append(d.Statistics, sd)
	}
	for _, a := range res.Aggregates() {
		ad := AggregateDoc{Name: a.Name, By: a.By, Rows: make([]GroupDoc, len(a.Rows))}
		for i, kv := range a.Rows {
			ad.Rows[i] = GroupDoc{Key: kv.Key, Value: ptr(kv.Value)}
		}
		d.Aggregates = append(d.Aggregates, ad)
	}
	if m := res.Corr; m != nil {
		cd := &CorrelationDoc{Columns: append([]string{}, m.Columns...), Values: make([][]*float64, len(m.Values))}
		for i, row := range m.Values {
			cd.Values[i] = make([]*float64, len(row))
			for j, v := range row {
				cd.Values[i][j] = ptr(v)
			}
		}
		d.Correlation = cd
	}
	for _, r := range res.Preview {
		row := make(map[string]any, len(res.Columns))
		for _, c := range res.Columns {
			row[c] = cellValue(r[c])
		}
		d.Preview = append(d.Preview, row)
	}
	for _, err := range res.Issues {
		d.Issues = append(d.Issues, err.Error())
	}
	if d.Notices == nil {
		d.Notices = []string{}
	}
	return d
}

// JSON renders res as indented JSON.
func JSON(res *analysis.Result, meta Meta) ([]byte, error) {
	return utils.PrettyJSON(NewDocument(res, meta))
}

// ptr returns nil for NaN and infinities so they encode as null.
func ptr(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
