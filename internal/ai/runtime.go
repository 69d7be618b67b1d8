package ai

import "context"

// Runtime is implemented by LLM backends that answer chat requests.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// StreamRuntime is an optional extension that supports streaming output.
// Implementors invoke onDelta with each partial content chunk.
type StreamRuntime interface {
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error
}

// Embedder turns texts into vectors with the named model, one vector per input.
type Embedder interface {
	Embed(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

// Provider identifiers accepted by GetRuntime.
const (
	ProviderOllama = "ollama"
	ProviderLocal  = "local"
)
