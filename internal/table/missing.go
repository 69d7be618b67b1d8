package table

import (
	"math"
	"strconv"

	"github.com/montanaflynn/stats"
)

// Values returns the non-missing numeric values of a number column.
func (c *Column) Values() []float64 {
	if c.Kind != KindNumber {
		return nil
	}
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if cell.Null {
			continue
		}
		out = append(out, cell.Num)
	}
	return out
}

// Mean returns the mean of the non-missing values, or NaN when there are none.
func (c *Column) Mean() float64 {
	m, err := stats.Mean(stats.Float64Data(c.Values()))
	if err != nil {
		return math.NaN()
	}
	return m
}

// WithMissingFilled returns a working copy in which empty number cells hold
// the column mean and every other empty cell holds MissingMarker. Filled
// cells are flagged Imputed. The receiver is never modified.
func (t *Table) WithMissingFilled() *Table {
	out := t.Clone()
	for j := range out.Columns {
		col := &out.Columns[j]
		if col.Kind == KindNumber {
			mean := col.Mean()
			if math.IsNaN(mean) {
				continue
			}
			raw := strconv.FormatFloat(mean, 'f', -1, 64)
			for i := range col.Cells {
				if col.Cells[i].Null {
					col.Cells[i] = Cell{Imputed: true, Num: mean, Raw: raw}
				}
			}
			continue
		}
		for i := range col.Cells {
			if col.Cells[i].Null {
				col.Cells[i] = Cell{Imputed: true, Raw: MissingMarker}
			}
		}
	}
	return out
}
