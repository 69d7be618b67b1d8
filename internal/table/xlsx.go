package table

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Load reads the selected sheet (the first one by default). The first row is the header.
func (xlsxLoader) Load(name string, data []byte, opt Options) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Name: name, Msg: "open workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &LoadError{Name: name, Msg: "workbook has no sheets"}
	}
	sheet := sheets[0]
	if opt.SheetName != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, &LoadError{Name: name, Msg: fmt.Sprintf("sheet %q not found (available: %s)", opt.SheetName, strings.Join(sheets, ", "))}
		}
	}
	rows, err := storedRows(f, sheet)
	if err != nil {
		return nil, &LoadError{Name: name, Msg: fmt.Sprintf("read sheet %q", sheet), Err: err}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &LoadError{Name: name, Msg: fmt.Sprintf("sheet %q has no header row", sheet)}
	}
	return build(name, rows[0], rows[1:], opt.MaxRows), nil
}

// storedRows returns the stored cell values of sheet, so number formats such
// as "$#,##0.00" or "0.00" neither hide numbers nor round them. Booleans and
// date-styled numbers keep their displayed text (TRUE, 2024-01-02).
func storedRows(f *excelize.File, sheet string) ([][]string, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	dateStyle := map[int]bool{}
	for r, row := range raw {
		if r >= len(shown) {
			break
		}
		for c, v := range row {
			if c >= len(shown[r]) || shown[r][c] == v {
				continue
			}
			disp := shown[r][c]
			if _, ok := parseBool(disp); ok {
				row[c] = disp
				continue
			}
			if _, ok := parseNumber(v); !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			idx, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return nil, err
			}
			isDate, seen := dateStyle[idx]
			if !seen {
				isDate = dateFormatted(f, idx)
				dateStyle[idx] = isDate
			}
			if isDate {
				row[c] = disp
			}
		}
	}
	return raw, nil
}

// dateFormatted reports whether style idx renders numbers as dates or times.
func dateFormatted(f *excelize.File, idx int) bool {
	st, err := f.GetStyle(idx)
	if err != nil || st == nil {
		return false
	}
	switch n := st.NumFmt; {
	case n >= 14 && n <= 22, n >= 45 && n <= 47, n >= 27 && n <= 36, n >= 50 && n <= 58, n >= 71 && n <= 81:
		return true
	}
	if st.CustomNumFmt == nil {
		return false
	}
	return dateCodeRe.MatchString(strings.ToLower(quotedFmtRe.ReplaceAllString(*st.CustomNumFmt, "")))
}

var (
	// quotedFmtRe strips literals and bracketed sections ("USD ", [$-409], [Red]).
	quotedFmtRe = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)
	dateCodeRe  = regexp.MustCompile(`[ymdhs]`)
)
