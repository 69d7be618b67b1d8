package assist

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/sheetask-cli/internal/retrieval"
	"github.com/KaramelBytes/sheetask-cli/internal/utils"
)

const systemPrompt = "You answer questions about a single spreadsheet. " +
	"Use only the data given to you. Reply in plain prose or a small markdown table. " +
	"Never reply with code to run. If the data cannot answer the question, say so."

// DefaultContextTokens bounds the data section of a prompt.
const DefaultContextTokens = 6000

// PreviewPrompt builds the user prompt for answering from a data preview.
// The preview is truncated to budget tokens (DefaultContextTokens when <= 0).
func PreviewPrompt(preview, question string, budget int) string {
	if budget <= 0 {
		budget = DefaultContextTokens
	}
	var sb strings.Builder
	sb.WriteString("[QUESTION]\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n\n")
	sb.WriteString(utils.TruncateToTokenLimit(strings.TrimSpace(preview), budget))
	sb.WriteString("\n")
	return sb.String()
}

// RetrievalPrompt builds the user prompt from retrieved row chunks, best first.
func RetrievalPrompt(hits []retrieval.Hit, question string, budget int) string {
	if budget <= 0 {
		budget = DefaultContextTokens
	}
	var sb strings.Builder
	sb.WriteString("[QUESTION]\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n\n[RETRIEVED ROWS]\n")
	if len(hits) == 0 {
		sb.WriteString("(no rows matched the question)\n")
		return sb.String()
	}
	used := 0
	for i, h := range hits {
		block := fmt.Sprintf("-- %d) rows %d-%d (score %.3f) --\n%s\n\n", i+1, h.FirstRow+1, h.LastRow+1, h.Score, h.Text)
		n := utils.CountTokens(block)
		if used+n > budget && i > 0 {
			break
		}
		sb.WriteString(block)
		used += n
	}
	return sb.String()
}
