package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/sheetask-cli/internal/analysis"
	"github.com/KaramelBytes/sheetask-cli/internal/table"
)

// request is the per-question state shared by intent handlers.
type request struct {
	query string
	types analysis.Types
	// work is the caller's table with missing values filled.
	work *table.Table
}

type rule struct {
	intent   Intent
	keywords []string
	run      func(*request) (*Result, error)
}

func (r rule) matches(q string) bool {
	for _, k := range r.keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

// rules are evaluated in order; the first whose keywords occur in the query
// owns it. A rule that then finds nothing ends in Unrecognized without
// consulting later rules.
var rules = []rule{
	{intent: Average, keywords: []string{"average", "mean"}, run: runAverage},
	{intent: Count, keywords: []string{"how many", "count"}, run: runCount},
	{intent: GroupedCompare, keywords: []string{"compare", "by"}, run: runGroupedCompare},
	{intent: Distribution, keywords: []string{"bar chart", "distribution"}, run: runDistribution},
}

// Interpret answers one question about t. types may be nil, in which case
// the table is classified first. Typed failures are *ColumnNotFoundError and
// *MalformedComparisonError; an unmatched question is not an error.
func Interpret(t *table.Table, question string, types analysis.Types) (*Result, error) {
	if t == nil {
		return nil, errors.New("nil table")
	}
	if types == nil {
		types = analysis.Classify(t)
	}
	req := &request{
		query: strings.ToLower(strings.TrimSpace(question)),
		types: types,
		work:  t.WithMissingFilled(),
	}
	for _, r := range rules {
		if !r.matches(req.query) {
			continue
		}
		res, err := r.run(req)
		if errors.Is(err, errNoResult) {
			return unrecognized(), nil
		}
		if err != nil {
			return nil, err
		}
		res.Intent = r.intent
		return res, nil
	}
	return unrecognized(), nil
}

// Answer is Interpret with the recoverable ColumnNotFoundError folded into
// the Unrecognized outcome. Other errors are returned unchanged.
func Answer(t *table.Table, question string, types analysis.Types) (*Result, error) {
	res, err := Interpret(t, question, types)
	var cnf *ColumnNotFoundError
	if errors.As(err, &cnf) {
		return unrecognized(), nil
	}
	return res, err
}

// firstMentioned returns the first column in table order whose name occurs in
// the query and, when want is non-empty, whose type is want.
func (r *request) firstMentioned(want analysis.ColumnType) (*table.Column, bool) {
	for i := range r.work.Columns {
		c := &r.work.Columns[i]
		if want != "" && r.types[c.Name] != want {
			continue
		}
		if strings.Contains(r.query, c.Name) {
			return c, true
		}
	}
	return nil, false
}

func runAverage(r *request) (*Result, error) {
	col, ok := r.firstMentioned(analysis.Numeric)
	if !ok {
		return nil, &ColumnNotFoundError{Intent: Average, Want: analysis.Numeric}
	}
	mean := col.Mean()
	return scalar(Average, fmt.Sprintf("Average %s: %.2f", table.ReadableName(col.Name), mean), mean), nil
}
