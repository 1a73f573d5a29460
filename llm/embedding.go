package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

// The embedding endpoint is called over REST rather than through the SDK so
// output_dimensionality can be pinned; the schema must match the 768-dim
// vector column in the index.
const (
	embeddingAPI       = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	embeddingModel     = "models/gemini-embedding-001"
	EmbeddingDimension = 768
)

// EmbeddingRequest is the embedContent request body.
type EmbeddingRequest struct {
	Model                string       `json:"model"`
	Content              ContentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

// ContentInput represents content for embedding.
type ContentInput struct {
	Parts []PartInput `json:"parts"`
}

// PartInput represents a part of content.
type PartInput struct {
	Text string `json:"text"`
}

// EmbeddingResponse is the embedContent response body.
type EmbeddingResponse struct {
	Embedding EmbeddingData `json:"embedding"`
}

// EmbeddingData contains the embedding values.
type EmbeddingData struct {
	Values []float64 `json:"values"`
}

// GeminiEmbedder implements Embedder against the Gemini embedding API.
type GeminiEmbedder struct {
	apiKey     string
	httpClient *http.Client
}

// NewGeminiEmbedder creates an embedder with the given per-call timeout.
func NewGeminiEmbedder(apiKey string, timeout time.Duration) *GeminiEmbedder {
	return &GeminiEmbedder{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Embed returns an L2-normalized 768-dim embedding for the text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string, task EmbeddingTask) ([]float64, error) {
	reqBody := EmbeddingRequest{
		Model: embeddingModel,
		Content: ContentInput{
			Parts: []PartInput{{Text: text}},
		},
		TaskType:             string(task),
		OutputDimensionality: EmbeddingDimension,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", embeddingAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", e.apiKey)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp EmbeddingResponse
			if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
				resp.Body.Close()
				if attempt == maxRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", err)
				}
				continue
			}
			resp.Body.Close()
			return normalize(apiResp.Embedding.Values), nil
		}

		resp.Body.Close()

		// Bad request and auth errors will not recover on retry.
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("embedding API error: %d", resp.StatusCode)
		}
		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("embedding API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return nil, ErrEmbeddingFailed
}

func normalize(values []float64) []float64 {
	norm := 0.0
	for _, v := range values {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range values {
			values[i] /= norm
		}
	}
	return values
}
