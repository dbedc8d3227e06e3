package analysis

import "sort"

// KeyValue is one group of an aggregate.
type KeyValue struct {
	Key   string
	Value float64
}

// Aggregate is an ordered (key, value) table produced by a group-by-sum.
type Aggregate struct {
	Name string
	// By is the grouping column.
	By   string
	Rows []KeyValue
}

// Total sums the aggregate's values.
func (a *Aggregate) Total() float64 {
	if a == nil {
		return 0
	}
	var sum float64
	for _, kv := range a.Rows {
		sum += kv.Value
	}
	return sum
}

// Get returns the value for key.
func (a *Aggregate) Get(key string) (float64, bool) {
	if a == nil {
		return 0, false
	}
	for _, kv := range a.Rows {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return 0, false
}

// groupSum sums valueCol per distinct key of keyCol. Groups keep the order in
// which their key first occurs; rows with a null key are skipped and null
// values add nothing.
func groupSum(t *Table, name, keyCol, valueCol string) *Aggregate {
	agg := &Aggregate{Name: name, By: keyCol, Rows: []KeyValue{}}
	index := map[string]int{}
	for _, r := range t.Rows {
		k := r[keyCol]
		if k.IsNull() {
			continue
		}
		key := k.String()
		i, ok := index[key]
		if !ok {
			i = len(agg.Rows)
			index[key] = i
			agg.Rows = append(agg.Rows, KeyValue{Key: key})
		}
		if v := r[valueCol]; v.Kind == KindNumber {
			agg.Rows[i].Value += v.Num
		}
	}
	return agg
}

// topN keeps the n largest groups, sorted descending. Ties keep first-occurrence order.
func topN(a *Aggregate, n int) *Aggregate {
	rows := make([]KeyValue, len(a.Rows))
	copy(rows, a.Rows)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value > rows[j].Value })
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return &Aggregate{Name: a.Name, By: a.By, Rows: rows}
}
