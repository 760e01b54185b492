package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	embeddingEndpoint      = "https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent"
	batchEmbeddingEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:batchEmbedContents"

	embeddingDimension = 768
	embeddingBatchSize = 100 // API limit per batch request

	maxRetries     = 3
	initialBackoff = time.Second
)

type embeddingRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type partInput struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding embeddingData `json:"embedding"`
}

type embeddingData struct {
	Values []float64 `json:"values"`
}

type batchEmbeddingRequest struct {
	Requests []embeddingRequest `json:"requests"`
}

// The batch API returns bare value arrays, not nested "embedding" objects.
type batchEmbeddingResponse struct {
	Embeddings []embeddingData `json:"embeddings"`
}

// GeminiEmbedder calls the Gemini embedding API over HTTP. Vectors are
// L2-normalized before being returned, which is required for dimensions
// below 3072.
type GeminiEmbedder struct {
	apiKey string
	model  string
	client *http.Client
}

// NewGeminiEmbedder creates an embedder for the given model.
func NewGeminiEmbedder(apiKey, model string) *GeminiEmbedder {
	return &GeminiEmbedder{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Dimension returns the fixed output dimensionality requested from the API.
func (e *GeminiEmbedder) Dimension() int {
	return embeddingDimension
}

// EmbedQuery embeds retrieval-query text with bounded retry.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64
	err := Retry(ctx, maxRetries, initialBackoff, func() error {
		var callErr error
		embedding, callErr = e.embedOne(ctx, text, "RETRIEVAL_QUERY")
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return embedding, nil
}

// EmbedDocuments embeds corpus text in API-sized batches with bounded retry
// per batch. The returned slice is ordered like the input.
func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	embeddings := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		var batch [][]float64
		err := Retry(ctx, maxRetries, initialBackoff, func() error {
			var callErr error
			batch, callErr = e.embedBatch(ctx, texts[start:end])
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("%w: batch starting at %d: %v", ErrEmbeddingFailed, start, err)
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

func (e *GeminiEmbedder) embedOne(ctx context.Context, text, taskType string) ([]float64, error) {
	reqBody := embeddingRequest{
		Model:                "models/" + e.model,
		Content:              contentInput{Parts: []partInput{{Text: text}}},
		TaskType:             taskType,
		OutputDimensionality: embeddingDimension,
	}

	var apiResp embeddingResponse
	url := fmt.Sprintf(embeddingEndpoint, e.model)
	if err := e.post(ctx, url, reqBody, &apiResp); err != nil {
		return nil, err
	}
	if len(apiResp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	normalize(apiResp.Embedding.Values)
	return apiResp.Embedding.Values, nil
}

func (e *GeminiEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	requests := make([]embeddingRequest, len(texts))
	for i, text := range texts {
		requests[i] = embeddingRequest{
			Model:                "models/" + e.model,
			Content:              contentInput{Parts: []partInput{{Text: text}}},
			TaskType:             "RETRIEVAL_DOCUMENT",
			OutputDimensionality: embeddingDimension,
		}
	}

	var apiResp batchEmbeddingResponse
	url := fmt.Sprintf(batchEmbeddingEndpoint, e.model)
	if err := e.post(ctx, url, batchEmbeddingRequest{Requests: requests}, &apiResp); err != nil {
		return nil, err
	}
	if len(apiResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(apiResp.Embeddings), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for i, item := range apiResp.Embeddings {
		if len(item.Values) == 0 {
			return nil, fmt.Errorf("text %d has empty embedding", i)
		}
		normalize(item.Values)
		vectors[i] = item.Values
	}
	return vectors, nil
}

func (e *GeminiEmbedder) post(ctx context.Context, url string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return Permanent{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return Permanent{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		apiErr := fmt.Errorf("API error: %d - %s", resp.StatusCode, string(respBody))
		// Bad requests and rejected credentials will not succeed on retry.
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return Permanent{Err: apiErr}
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// normalize scales a vector to unit L2 norm in place.
func normalize(embedding []float64) {
	var sumSq float64
	for _, v := range embedding {
		sumSq += v * v
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return
	}
	for i := range embedding {
		embedding[i] /= norm
	}
}
