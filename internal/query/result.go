package query

import (
	"fmt"
	"math"
	"strconv"

	"github.com/KaramelBytes/sheetask-cli/internal/table"
)

// Intent is the category of question a query was classified into.
type Intent int

const (
	Unrecognized Intent = iota
	Average
	Count
	GroupedCompare
	Distribution
)

func (i Intent) String() string {
	switch i {
	case Average:
		return "average"
	case Count:
		return "count"
	case GroupedCompare:
		return "grouped_compare"
	case Distribution:
		return "distribution"
	default:
		return "unrecognized"
	}
}

// MarshalText encodes the intent by name.
func (i Intent) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnrecognizedMessage is the fixed reply when no intent produced a result.
const UnrecognizedMessage = "Sorry, I couldn't understand the query. Please try rephrasing!"

// Result is the outcome of one question. It is never cached or reused.
type Result struct {
	Intent Intent     `json:"intent"`
	Text   string     `json:"text"`
	Value  *float64   `json:"value,omitempty"`
	Table  *TableData `json:"table,omitempty"`
	Chart  *ChartSpec `json:"chart,omitempty"`
}

// Recognized reports whether an intent handler produced the result.
func (r *Result) Recognized() bool { return r != nil && r.Intent != Unrecognized }

// TableData is a small rendered result table.
type TableData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Markdown renders the table as a pipe table.
func (t *TableData) Markdown() string {
	return table.MarkdownTable(t.Columns, t.Rows)
}

// ChartKind names the chart a renderer should draw.
type ChartKind string

const ChartBar ChartKind = "bar"

// ChartSpec declares a chart without rendering it.
type ChartSpec struct {
	Kind   ChartKind    `json:"kind"`
	X      string       `json:"x"`
	Y      string       `json:"y"`
	Title  string       `json:"title"`
	Color  string       `json:"color,omitempty"`
	Points []ChartPoint `json:"points"`
}

type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

func unrecognized() *Result {
	return &Result{Intent: Unrecognized, Text: UnrecognizedMessage}
}

func scalar(intent Intent, text string, v float64) *Result {
	return &Result{Intent: intent, Text: text, Value: &v}
}

// formatNum renders aggregates without float noise (0.1+0.2 prints as 0.3).
func formatNum(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	return strconv.FormatFloat(math.Round(f*1e6)/1e6, 'f', -1, 64)
}
