package analysis

import (
	"github.com/KaramelBytes/sheetask-cli/internal/table"
)

// ColumnType is the query-facing category of a column.
type ColumnType string

const (
	Numeric     ColumnType = "numeric"
	Categorical ColumnType = "categorical"
	Text        ColumnType = "text"
)

// MaxCategories is the distinct-value ceiling for a categorical column.
const MaxCategories = 10

// Types maps normalized column names to their category.
type Types map[string]ColumnType

// Classify assigns every column exactly one ColumnType. The numeric check
// runs first, so a number column is always Numeric regardless of cardinality.
// The result reflects the table's current contents; re-run it after mutation.
func Classify(t *table.Table) Types {
	out := make(Types, len(t.Columns))
	for i := range t.Columns {
		out[t.Columns[i].Name] = classifyColumn(&t.Columns[i])
	}
	return out
}

func classifyColumn(c *table.Column) ColumnType {
	if c.Kind == table.KindNumber {
		return Numeric
	}
	if c.Kind == table.KindBool {
		return Categorical
	}
	// Covers 0/1/yes/no columns too.
	if distinct(c) <= MaxCategories {
		return Categorical
	}
	return Text
}

func distinct(c *table.Column) int {
	seen := map[string]struct{}{}
	for _, cell := range c.Cells {
		if cell.Null {
			continue
		}
		seen[cell.Raw] = struct{}{}
	}
	return len(seen)
}
