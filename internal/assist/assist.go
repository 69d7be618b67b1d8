// Package assist answers spreadsheet questions with a local language model
// when the rule-based interpreter cannot.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/sheetask-cli/internal/ai"
	"github.com/KaramelBytes/sheetask-cli/internal/logging"
	"github.com/KaramelBytes/sheetask-cli/internal/retrieval"
)

// Assistant sends assembled prompts to a Runtime.
type Assistant struct {
	Runtime     ai.Runtime
	Model       string
	MaxTokens   int
	Temperature float64
}

// Ask sends prompt with the fixed system message and returns the reply.
// When onDelta is non-nil and the runtime streams, partial output is passed
// to onDelta as it arrives and the full reply is still returned.
func (a *Assistant) Ask(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	if a == nil || a.Runtime == nil {
		return "", errors.New("no assistant runtime configured")
	}
	req := ai.GenerateRequest{
		Model: a.Model,
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   a.MaxTokens,
		Temperature: a.Temperature,
	}
	if sr, ok := a.Runtime.(ai.StreamRuntime); ok && onDelta != nil {
		var sb strings.Builder
		err := sr.GenerateStream(ctx, req, func(d string) {
			sb.WriteString(d)
			onDelta(d)
		})
		if err != nil {
			return "", fmt.Errorf("streaming generation failed: %w", err)
		}
		return strings.TrimSpace(sb.String()), nil
	}
	resp, err := a.Runtime.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("model returned an empty answer")
	}
	logging.Debugf("assistant answer (%s): %d chars", resp.RequestID, len(text))
	return text, nil
}

// Retrieve embeds the question with model and returns the best-matching chunks.
func Retrieve(ctx context.Context, emb retrieval.Embedder, idx *retrieval.Index, model, question string, topK int, minScore float64) ([]retrieval.Hit, error) {
	vecs, err := emb.Embed(ctx, model, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, errors.New("embed query: no vector returned")
	}
	if topK <= 0 {
		topK = 6
	}
	return idx.Search(vecs[0], topK, minScore), nil
}
