package query

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/KaramelBytes/sheetask-cli/internal/analysis"
	"github.com/KaramelBytes/sheetask-cli/internal/table"
)

// comparisonRe captures "<word> <op> <number>" anywhere in the query.
var comparisonRe = regexp.MustCompile(`(\w+)\s*(<=|>=|<|>|=)\s*(\d+\.?\d*)`)

// Comparison is a parsed "<column> <op> <value>" filter.
type Comparison struct {
	Column string
	Op     string
	Value  float64
}

// ParseComparison finds the first comparison in q. ok is false when q holds none.
func ParseComparison(q string) (cmp Comparison, ok bool, err error) {
	m := comparisonRe.FindStringSubmatch(q)
	if m == nil {
		return Comparison{}, false, nil
	}
	v, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Comparison{}, true, &MalformedComparisonError{Literal: m[3], Err: err}
	}
	return Comparison{Column: m[1], Op: m[2], Value: v}, true, nil
}

// Match reports whether x satisfies the comparison.
func (c Comparison) Match(x float64) bool {
	switch c.Op {
	case "<":
		return x < c.Value
	case ">":
		return x > c.Value
	case "<=":
		return x <= c.Value
	case ">=":
		return x >= c.Value
	case "=":
		return x == c.Value
	}
	return false
}

// runCount requires some column name in the query, then filters on the
// column captured by the comparison pattern, which need not be that column.
func runCount(r *request) (*Result, error) {
	if _, ok := r.firstMentioned(""); !ok {
		return nil, &ColumnNotFoundError{Intent: Count}
	}
	cmp, ok, err := ParseComparison(r.query)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoResult
	}
	col, found := r.work.Column(cmp.Column)
	if !found || r.types[col.Name] != analysis.Numeric {
		return nil, &ColumnNotFoundError{Intent: Count, Name: cmp.Column, Want: analysis.Numeric}
	}
	n := 0
	for _, cell := range col.Cells {
		if !cell.Null && cmp.Match(cell.Num) {
			n++
		}
	}
	text := fmt.Sprintf("Count of %s %s %s: %d", table.ReadableName(col.Name), cmp.Op, formatNum(cmp.Value), n)
	return scalar(Count, text, float64(n)), nil
}
