package table

import (
	"fmt"
	"strings"
)

// Kind is the inferred primitive storage kind of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// MissingMarker replaces empty categorical/text cells in a working copy.
const MissingMarker = "missing"

// Cell is a single value. Raw keeps the original text for display.
type Cell struct {
	Null    bool
	Imputed bool
	Num     float64
	Bool    bool
	Raw     string
}

// String renders the cell the way it is shown in tables and matched in group keys.
func (c Cell) String() string {
	if c.Null {
		return ""
	}
	return c.Raw
}

// Column is an ordered sequence of cells sharing one storage kind.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// Table is one loaded sheet. Column names are normalized once at load time.
type Table struct {
	Name    string
	Columns []Column
}

// Rows returns the number of data rows.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// Column returns the column with the given (normalized) name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Names lists column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Clone deep-copies the table so a working copy can be mutated freely.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		out.Columns[i] = Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	return out
}

// Head returns the first n rows rendered as strings, in column order.
func (t *Table) Head(n int) [][]string {
	rows := t.Rows()
	if n < 0 || n > rows {
		n = rows
	}
	out := make([][]string, n)
	for r := 0; r < n; r++ {
		row := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = c.Cells[r].String()
		}
		out[r] = row
	}
	return out
}

// NormalizeName lowercases and trims a header and collapses every run of
// characters outside [a-z0-9] into a single underscore. Leading and trailing
// underscores are dropped. NormalizeName(NormalizeName(s)) == NormalizeName(s).
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	sep := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	return b.String()
}

// ReadableName renders a normalized column name for humans.
func ReadableName(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// normalizeHeader normalizes every header and makes the result unique.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		n := NormalizeName(h)
		if n == "" {
			n = fmt.Sprintf("column_%d", i+1)
		}
		if cnt, ok := seen[n]; ok {
			cnt++
			seen[n] = cnt
			cand := fmt.Sprintf("%s_%d", n, cnt)
			for {
				if _, dup := seen[cand]; !dup {
					break
				}
				cnt++
				seen[n] = cnt
				cand = fmt.Sprintf("%s_%d", n, cnt)
			}
			n = cand
		}
		seen[n] = 1
		out[i] = n
	}
	return out
}
