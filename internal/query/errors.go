package query

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/sheetask-cli/internal/analysis"
)

// errNoResult tells the interpreter a matched intent produced nothing.
var errNoResult = errors.New("no result")

// ColumnNotFoundError indicates the query names no column usable by the matched intent.
type ColumnNotFoundError struct {
	Intent Intent
	// Name is the referenced column, empty when no column name appeared at all.
	Name string
	Want analysis.ColumnType
}

func (e *ColumnNotFoundError) Error() string {
	kind := "column"
	if e.Want != "" {
		kind = string(e.Want) + " column"
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: %s %q not found", e.Intent, kind, e.Name)
	}
	return fmt.Sprintf("%s: no %s named in query", e.Intent, kind)
}

// MalformedComparisonError indicates the count comparison literal is not a number.
type MalformedComparisonError struct {
	Literal string
	Err     error
}

func (e *MalformedComparisonError) Error() string {
	return fmt.Sprintf("malformed comparison value %q: %v", e.Literal, e.Err)
}

func (e *MalformedComparisonError) Unwrap() error { return e.Err }
