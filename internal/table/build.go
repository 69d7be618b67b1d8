package table

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var thousandsRe = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// parseNumber accepts plain floats, scientific notation and comma-grouped thousands.
func parseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}
	if thousandsRe.MatchString(raw) {
		raw = strings.ReplaceAll(raw, ",", "")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// build turns a header and string rows into a typed Table. Short rows are
// padded with empty cells and extra cells beyond the header are dropped.
func build(name string, header []string, rows [][]string, maxRows int) *Table {
	names := normalizeHeader(header)
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	t := &Table{Name: name, Columns: make([]Column, len(names))}
	for j, n := range names {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				raw[i] = strings.TrimSpace(row[j])
			}
		}
		t.Columns[j] = typedColumn(n, raw)
	}
	return t
}

func typedColumn(name string, raw []string) Column {
	allNum, allBool, seen := true, true, false
	for _, v := range raw {
		if v == "" {
			continue
		}
		seen = true
		if _, ok := parseNumber(v); !ok {
			allNum = false
		}
		if _, ok := parseBool(v); !ok {
			allBool = false
		}
	}
	kind := KindText
	switch {
	case !seen || allNum:
		// An all-empty column loads as numeric, like an all-NaN float column.
		kind = KindNumber
	case allBool:
		kind = KindBool
	}
	cells := make([]Cell, len(raw))
	for i, v := range raw {
		if v == "" {
			cells[i] = Cell{Null: true}
			continue
		}
		c := Cell{Raw: v}
		switch kind {
		case KindNumber:
			c.Num, _ = parseNumber(v)
		case KindBool:
			c.Bool, _ = parseBool(v)
		}
		cells[i] = c
	}
	return Column{Name: name, Kind: kind, Cells: cells}
}
