package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/sheetask-cli/internal/table"
)

// Report is a markdown-friendly preview of a loaded table.
type Report struct {
	Name    string          `json:"name"`
	Rows    int             `json:"rows"`
	Cols    []ColumnSummary `json:"columns"`
	Header  []string        `json:"-"`
	Samples [][]string      `json:"samples"`
}

// ColumnSummary captures the classified type and simple statistics per column.
type ColumnSummary struct {
	Name    string     `json:"name"`
	Type    ColumnType `json:"type"`
	NonNull int        `json:"non_null"`
	Missing int        `json:"missing"`
	Unique  int        `json:"unique"`
	// Numeric stats
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	// Categorical top values
	TopValues []CategoryCount `json:"top_values,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Describe builds a Report with up to sampleRows preview rows.
func Describe(t *table.Table, types Types, sampleRows int) *Report {
	if sampleRows < 0 {
		sampleRows = 5
	}
	rep := &Report{Name: t.Name, Rows: t.Rows(), Header: t.Names(), Samples: t.Head(sampleRows)}
	for i := range t.Columns {
		c := &t.Columns[i]
		s := ColumnSummary{Name: c.Name, Type: types[c.Name], Unique: distinct(c)}
		for _, cell := range c.Cells {
			if cell.Null {
				s.Missing++
			} else {
				s.NonNull++
			}
		}
		switch s.Type {
		case Numeric:
			vals := stats.Float64Data(c.Values())
			if len(vals) > 0 {
				s.Min, _ = vals.Min()
				s.Max, _ = vals.Max()
				s.Mean, _ = vals.Mean()
			}
		case Categorical:
			s.TopValues = topValues(c, 5)
		}
		rep.Cols = append(rep.Cols, s)
	}
	return rep
}

func topValues(c *table.Column, limit int) []CategoryCount {
	counts := map[string]int{}
	for _, cell := range c.Cells {
		if !cell.Null {
			counts[cell.Raw]++
		}
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// Markdown renders a compact preview suitable for terminals and prompts.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATA PREVIEW]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[COLUMNS]\n")
	for _, c := range r.Cols {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %d, unique %d)", c.Name, c.Type, c.NonNull, c.Missing, c.Unique))
		switch c.Type {
		case Numeric:
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g", c.Min, c.Max, c.Mean))
			}
		case Categorical:
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", kv.Value, kv.Count))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n")
		b.WriteString(table.MarkdownTable(r.Header, r.Samples))
	}
	return b.String()
}
