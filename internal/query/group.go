package query

import (
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/KaramelBytes/sheetask-cli/internal/analysis"
	"github.com/KaramelBytes/sheetask-cli/internal/table"
)

const (
	groupedColor      = "#36A2EB"
	distributionColor = "#FF6384"
)

// groupKey renders a category cell. Imputed keys are reported as absent so
// grouping only sees categories present in the data.
func groupKey(c table.Cell, kind table.Kind) (string, bool) {
	if c.Null || c.Imputed {
		return "", false
	}
	if kind == table.KindBool {
		return strconv.FormatBool(c.Bool), true
	}
	return c.Raw, true
}

func runGroupedCompare(r *request) (*Result, error) {
	key, ok := r.firstMentioned(analysis.Categorical)
	if !ok {
		return nil, &ColumnNotFoundError{Intent: GroupedCompare, Want: analysis.Categorical}
	}
	agg, ok := r.firstMentioned(analysis.Numeric)
	if !ok {
		return nil, &ColumnNotFoundError{Intent: GroupedCompare, Want: analysis.Numeric}
	}
	groups := map[string][]float64{}
	for i, cell := range key.Cells {
		k, ok := groupKey(cell, key.Kind)
		if !ok {
			continue
		}
		v := agg.Cells[i]
		if v.Null {
			continue
		}
		groups[k] = append(groups[k], v.Num)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	td := &TableData{Columns: []string{key.Name, agg.Name}}
	chart := &ChartSpec{
		Kind:  ChartBar,
		X:     key.Name,
		Y:     agg.Name,
		Title: table.ReadableName(agg.Name) + " by " + table.ReadableName(key.Name),
		Color: groupedColor,
	}
	for _, k := range keys {
		sum := floats.Sum(groups[k])
		td.Rows = append(td.Rows, []string{k, formatNum(sum)})
		chart.Points = append(chart.Points, ChartPoint{Label: k, Value: sum})
	}
	return &Result{Text: td.Markdown(), Table: td, Chart: chart}, nil
}

func runDistribution(r *request) (*Result, error) {
	col, ok := r.firstMentioned(analysis.Categorical)
	if !ok {
		return nil, &ColumnNotFoundError{Intent: Distribution, Want: analysis.Categorical}
	}
	counts := map[string]int{}
	var order []string
	for _, cell := range col.Cells {
		k, ok := groupKey(cell, col.Kind)
		if !ok {
			continue
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	// Stable sort keeps first-appearance order among equal counts.
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	td := &TableData{Columns: []string{col.Name, "count"}}
	chart := &ChartSpec{
		Kind:  ChartBar,
		X:     col.Name,
		Y:     "count",
		Title: "Distribution of " + table.ReadableName(col.Name),
		Color: distributionColor,
	}
	for _, k := range order {
		td.Rows = append(td.Rows, []string{k, strconv.Itoa(counts[k])})
		chart.Points = append(chart.Points, ChartPoint{Label: k, Value: float64(counts[k])})
	}
	return &Result{Text: td.Markdown(), Table: td, Chart: chart}, nil
}
