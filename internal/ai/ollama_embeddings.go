package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OllamaEmbClient calls Ollama's /api/embeddings endpoint.
type OllamaEmbClient struct {
	*OllamaClient
}

func NewOllamaEmbClient(host string, timeout time.Duration) *OllamaEmbClient {
	return &OllamaEmbClient{OllamaClient: NewOllamaClient(host, timeout, 1, 0, 0)}
}

// Embed requests one embedding per input. Ollama accepts a single prompt per
// call, so inputs are sent sequentially; callers fan out across goroutines.
func (c *OllamaEmbClient) Embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if model == "" {
		return nil, fmt.Errorf("embedding model cannot be empty")
	}
	out := make([][]float32, 0, len(inputs))
	for _, s := range inputs {
		vec, err := c.embedOne(ctx, model, s)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (c *OllamaEmbClient) embedOne(ctx context.Context, model, prompt string) ([]float32, error) {
	type reqBody struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	type respBody struct {
		Embedding []float64 `json:"embedding"`
	}
	b, err := json.Marshal(reqBody{Model: model, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.post(ctx, "/api/embeddings", b)
	if err != nil {
		return nil, &UnreachableError{Host: c.host, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}
	var rb respBody
	if err := json.NewDecoder(resp.Body).Decode(&rb); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	vec := make([]float32, len(rb.Embedding))
	for i := range rb.Embedding {
		vec[i] = float32(rb.Embedding[i])
	}
	return vec, nil
}
