package table

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Age":              "age",
		"  Monthly Income": "monthly_income",
		"Sales Amount ($)": "sales_amount",
		"customer-ID":      "customer_id",
		"already_clean":    "already_clean",
		"Région":           "r_gion",
		"%%%":              "",
	}
	for in, want := range cases {
		got := NormalizeName(in)
		assert.Equal(t, want, got, "normalize %q", in)
		assert.Equal(t, got, NormalizeName(got), "normalize must be idempotent for %q", in)
	}
}

func TestNormalizeHeader_UniqueNames(t *testing.T) {
	got := normalizeHeader([]string{"Sales", "sales", "SALES ", "", "a_2", "A"})
	assert.Equal(t, []string{"sales", "sales_2", "sales_3", "column_4", "a_2", "a"}, got)

	got = normalizeHeader([]string{"a_2", "a", "a"})
	assert.Equal(t, []string{"a_2", "a", "a_3"}, got)
}

func TestLoadCSV_InfersKinds(t *testing.T) {
	data := "Age,Region,Active,Notes,Revenue\n" +
		"34,north,true,first,\"1,200.50\"\n" +
		",south,false,second,300\n" +
		"51,north,TRUE,,99.5\n"
	tb, err := Load("people.csv", []byte(data), Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"age", "region", "active", "notes", "revenue"}, tb.Names())
	require.Equal(t, 3, tb.Rows())

	age, ok := tb.Column("age")
	require.True(t, ok)
	assert.Equal(t, KindNumber, age.Kind)
	assert.True(t, age.Cells[1].Null)
	assert.Equal(t, []float64{34, 51}, age.Values())
	assert.InDelta(t, 42.5, age.Mean(), 1e-9)

	region, _ := tb.Column("region")
	assert.Equal(t, KindText, region.Kind)

	active, _ := tb.Column("active")
	assert.Equal(t, KindBool, active.Kind)
	assert.True(t, active.Cells[2].Bool)

	rev, _ := tb.Column("revenue")
	assert.Equal(t, KindNumber, rev.Kind)
	assert.Equal(t, 1200.5, rev.Cells[0].Num)
}

func TestLoadCSV_SemicolonAndMaxRows(t *testing.T) {
	data := "a;b\n1;x\n2;y\n3;z\n"
	tb, err := Load("semi.csv", []byte(data), Options{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tb.Names())
	assert.Equal(t, 2, tb.Rows())
}

func TestLoadCSV_Empty(t *testing.T) {
	_, err := Load("empty.csv", nil, Options{})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "empty.csv", le.Name)
}

func TestLoad_Unsupported(t *testing.T) {
	_, err := Load("notes.docx", []byte("x"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func xlsxFixture(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		idx, err := f.NewSheet(sheet)
		require.NoError(t, err)
		f.SetActiveSheet(idx)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadXLSX_FirstSheet(t *testing.T) {
	data := xlsxFixture(t, "Data", [][]any{
		{"Customer Age", "Region", "Sales"},
		{34, "north", 120.5},
		{28, "south", 80},
		{45, "north", nil},
	})
	tb, err := Load("sales.xlsx", data, Options{})
	require.NoError(t, err)
	assert.Equal(t, "sales.xlsx", tb.Name)
	assert.Equal(t, []string{"customer_age", "region", "sales"}, tb.Names())
	assert.Equal(t, 3, tb.Rows())

	sales, _ := tb.Column("sales")
	assert.Equal(t, KindNumber, sales.Kind)
	assert.True(t, sales.Cells[2].Null)
	assert.Equal(t, 120.5, sales.Cells[0].Num)

	region, _ := tb.Column("region")
	assert.Equal(t, KindText, region.Kind)
}

func TestLoadXLSX_StoredValuesIgnoreNumberFormats(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Income", "Score", "Joined", "Active"},
		{1000.5, 1.234, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{2000.25, 2.345, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), false},
		{3000, 3.456, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), true},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	currencyFmt := "$#,##0.00"
	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt})
	require.NoError(t, err)
	twoPlaces, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "A2", "A4", currency))
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B4", twoPlaces))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tb, err := Load("styled.xlsx", buf.Bytes(), Options{})
	require.NoError(t, err)

	income, _ := tb.Column("income")
	assert.Equal(t, KindNumber, income.Kind)
	assert.Equal(t, []float64{1000.5, 2000.25, 3000}, income.Values())
	assert.Equal(t, "1000.5", income.Cells[0].Raw)

	score, _ := tb.Column("score")
	assert.Equal(t, KindNumber, score.Kind)
	assert.Equal(t, []float64{1.234, 2.345, 3.456}, score.Values(), "0.00 format must not round stored values")

	joined, _ := tb.Column("joined")
	assert.Equal(t, KindText, joined.Kind, "date-styled serials keep their displayed text")

	active, _ := tb.Column("active")
	assert.Equal(t, KindBool, active.Kind)
	assert.True(t, active.Cells[0].Bool)
	assert.False(t, active.Cells[1].Bool)
}

func TestLoadXLSX_SheetNotFound(t *testing.T) {
	data := xlsxFixture(t, "Sheet1", [][]any{{"a"}, {1}})
	_, err := Load("book.xlsx", data, Options{SheetName: "Missing"})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Error(), "Sheet1")
}

func TestLoadXLSX_Corrupt(t *testing.T) {
	_, err := Load("broken.xlsx", []byte("not a zip"), Options{})
	var le *LoadError
	require.True(t, errors.As(err, &le))
}

func TestWithMissingFilled_DoesNotMutate(t *testing.T) {
	data := "age,region\n10,north\n,\n30,south\n"
	tb, err := Load("t.csv", []byte(data), Options{})
	require.NoError(t, err)

	work := tb.WithMissingFilled()

	age, _ := work.Column("age")
	assert.False(t, age.Cells[1].Null)
	assert.True(t, age.Cells[1].Imputed)
	assert.Equal(t, 20.0, age.Cells[1].Num)

	region, _ := work.Column("region")
	assert.Equal(t, MissingMarker, region.Cells[1].String())
	assert.True(t, region.Cells[1].Imputed)

	orig, _ := tb.Column("age")
	assert.True(t, orig.Cells[1].Null, "original table must be untouched")
}

func TestHead(t *testing.T) {
	tb, err := Load("t.csv", []byte("a,b\n1,x\n2,y\n3,z\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "x"}, {"2", "y"}}, tb.Head(2))
	assert.Len(t, tb.Head(10), 3)
}

func TestMarkdownTable(t *testing.T) {
	got := MarkdownTable([]string{"region", "sales"}, [][]string{{"north", "300"}, {"a|b"}})
	want := "| region | sales |\n| --- | --- |\n| north | 300 |\n| a\\|b |  |\n"
	assert.Equal(t, want, got)
}
