package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/sheetask-cli/internal/table"
)

func loadCSV(t *testing.T, content string) *table.Table {
	t.Helper()
	tb, err := table.Load("fixture.csv", []byte(content), table.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return tb
}

func peopleCSV(n int) string {
	var b strings.Builder
	b.WriteString("age,region,active,name,answer\n")
	for i := 0; i < n; i++ {
		region := "north"
		if i%2 == 1 {
			region = "south"
		}
		answer := "yes"
		if i%3 == 0 {
			answer = "no"
		}
		b.WriteString(fmt.Sprintf("%d,%s,%t,person-%02d,%s\n", 20+i%3, region, i%2 == 0, i, answer))
	}
	return b.String()
}

func TestClassify(t *testing.T) {
	tb := loadCSV(t, peopleCSV(12))
	got := Classify(tb)
	want := Types{
		"age":    Numeric,
		"region": Categorical,
		"active": Categorical,
		"name":   Text,
		"answer": Categorical,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d types, got %d: %v", len(want), len(got), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: want %s, got %s", k, v, got[k])
		}
	}
}

func TestClassify_NumericBeatsCardinality(t *testing.T) {
	tb := loadCSV(t, "flag\n0\n1\n1\n0\n")
	if got := Classify(tb)["flag"]; got != Numeric {
		t.Fatalf("0/1 numbers must stay numeric, got %s", got)
	}
}

func TestClassify_TenDistinctIsCategorical(t *testing.T) {
	var b strings.Builder
	b.WriteString("code\n")
	for i := 0; i < 10; i++ {
		b.WriteString(fmt.Sprintf("c%d\n", i))
	}
	tb := loadCSV(t, b.String())
	if got := Classify(tb)["code"]; got != Categorical {
		t.Fatalf("want categorical at 10 distinct, got %s", got)
	}
	b.WriteString("c10\n")
	tb = loadCSV(t, b.String())
	if got := Classify(tb)["code"]; got != Text {
		t.Fatalf("want text at 11 distinct, got %s", got)
	}
}

func TestClassify_MissingCellsIgnoredForCardinality(t *testing.T) {
	tb := loadCSV(t, "city,n\nparis,1\n,2\nrome,3\n")
	if got := Classify(tb)["city"]; got != Categorical {
		t.Fatalf("want categorical, got %s", got)
	}
}

func TestClassify_RerunAfterMutation(t *testing.T) {
	tb := loadCSV(t, "code\na\nb\n")
	if Classify(tb)["code"] != Categorical {
		t.Fatalf("expected categorical before mutation")
	}
	col, _ := tb.Column("code")
	for i := 0; i < 20; i++ {
		col.Cells = append(col.Cells, table.Cell{Raw: fmt.Sprintf("v%d", i)})
	}
	if got := Classify(tb)["code"]; got != Text {
		t.Fatalf("expected text after mutation, got %s", got)
	}
}

func TestDescribeMarkdown(t *testing.T) {
	tb := loadCSV(t, "age,region\n30,north\n40,south\n,north\n")
	rep := Describe(tb, Classify(tb), 2)
	if rep.Rows != 3 || len(rep.Samples) != 2 {
		t.Fatalf("unexpected rows/samples: %d/%d", rep.Rows, len(rep.Samples))
	}
	age := rep.Cols[0]
	if age.Missing != 1 || age.Mean != 35 || age.Min != 30 || age.Max != 40 {
		t.Fatalf("unexpected age summary: %+v", age)
	}
	md := rep.Markdown()
	for _, want := range []string{
		"[DATA PREVIEW]",
		"File: fixture.csv",
		"Rows: 3",
		"- age: numeric (non-null 2, missing 1, unique 2)",
		"- region: categorical",
		"north(2), south(1)",
		"| age | region |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestClassify_FormattedXLSXNumbersAreNumeric(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range [][]any{{"Income", "Region"}, {1000.5, "north"}, {2000.25, "south"}, {3000, "north"}} {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatalf("set %s: %v", cell, err)
			}
		}
	}
	code := "$#,##0.00"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
	if err != nil {
		t.Fatalf("style: %v", err)
	}
	if err := f.SetCellStyle("Sheet1", "A2", "A4", style); err != nil {
		t.Fatalf("apply style: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	tb, err := table.Load("income.xlsx", buf.Bytes(), table.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := Classify(tb)
	if got["income"] != Numeric || got["region"] != Categorical {
		t.Fatalf("unexpected types: %v", got)
	}
}
