package llm

import (
	"context"
	"errors"
)

var (
	ErrEmbeddingFailed  = errors.New("failed to generate embedding")
	ErrGenerationFailed = errors.New("failed to generate content")
)

// Embedder converts text into fixed-dimension vectors, deterministic per
// model version. Document and query embeddings may use different task
// framings, so they are separate operations.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// Generator produces free-form text from a prompt. Non-deterministic,
// rate- and token-limited; implementations bound each call with a
// wall-clock timeout.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
