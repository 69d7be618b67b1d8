package retrieval

import (
	"strings"

	"github.com/KaramelBytes/sheetask-cli/internal/table"
	"github.com/KaramelBytes/sheetask-cli/internal/utils"
)

// Chunk is a run of consecutive rendered rows. FirstRow and LastRow are
// zero-based data row indexes, inclusive.
type Chunk struct {
	Text     string
	FirstRow int
	LastRow  int
}

// RowTexts renders each data row as "column: value" pairs. Missing cells are
// left out so the model never sees placeholder values.
func RowTexts(t *table.Table) []string {
	out := make([]string, t.Rows())
	parts := make([]string, 0, len(t.Columns))
	for i := range out {
		parts = parts[:0]
		for _, c := range t.Columns {
			cell := c.Cells[i]
			if cell.Null {
				continue
			}
			parts = append(parts, table.ReadableName(c.Name)+": "+cell.String())
		}
		out[i] = strings.Join(parts, ", ")
	}
	return out
}

// ChunkRows groups rows into chunks of up to maxTokens, repeating trailing
// rows worth up to overlap tokens at the start of the next chunk. A single
// row larger than maxTokens forms its own chunk.
func ChunkRows(rows []string, maxTokens, overlap int) []Chunk {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	if overlap < 0 {
		overlap = 0
	}
	var chunks []Chunk
	start, cur := 0, 0
	flush := func(end int) {
		chunks = append(chunks, Chunk{
			Text:     strings.Join(rows[start:end], "\n"),
			FirstRow: start,
			LastRow:  end - 1,
		})
	}
	for i, r := range rows {
		if r == "" {
			continue
		}
		t := utils.CountTokens(r)
		if cur+t > maxTokens && i > start {
			flush(i)
			// Overlap plus the incoming row must fit, or the next chunk would be overlap only.
			start, cur = backfillOverlap(rows, start, i, min(overlap, maxTokens-t))
		}
		cur += t
	}
	if start < len(rows) && cur > 0 {
		flush(len(rows))
	}
	return chunks
}

// backfillOverlap walks back from end to find where the next chunk starts so
// that it repeats at most overlap tokens of the previous one.
func backfillOverlap(rows []string, prevStart, end, overlap int) (int, int) {
	if overlap <= 0 {
		return end, 0
	}
	start, tokens := end, 0
	for j := end - 1; j > prevStart; j-- {
		t := utils.CountTokens(rows[j])
		if tokens+t > overlap {
			break
		}
		start = j
		tokens += t
	}
	return start, tokens
}
