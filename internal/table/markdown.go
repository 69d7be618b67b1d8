package table

import "strings"

// MarkdownTable renders a pipe table. Pipes and newlines inside values are escaped.
func MarkdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	writeRow := func(vals []string) {
		b.WriteString("|")
		for _, v := range vals {
			b.WriteString(" ")
			b.WriteString(safeVal(v))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(header)
	b.WriteString("|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range rows {
		if len(r) < len(header) {
			tmp := make([]string, len(header))
			copy(tmp, r)
			r = tmp
		}
		writeRow(r[:len(header)])
	}
	return b.String()
}

func safeVal(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "\\|")
}
