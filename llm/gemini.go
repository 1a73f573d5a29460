package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Completer over the Gemini SDK. One retry pass
// with exponential backoff; transient provider errors degrade to the
// caller's fallback, they never crash a turn.
type GeminiClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

// GeminiOption is a functional option for GeminiClient.
type GeminiOption func(*GeminiClient)

// GeminiWithModel sets the generation model name.
func GeminiWithModel(name string) GeminiOption {
	return func(c *GeminiClient) {
		c.modelName = name
	}
}

// GeminiWithTemperature sets the sampling temperature.
func GeminiWithTemperature(t float32) GeminiOption {
	return func(c *GeminiClient) {
		c.temperature = t
	}
}

// NewGeminiClient creates a Gemini-backed completer.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	c := &GeminiClient{
		client:      client,
		modelName:   "gemini-1.5-flash",
		temperature: 0.2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends a single prompt and returns the concatenated candidate
// text. Retries once per backoff step on transient failure.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(c.temperature)

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Printf("Warning: Gemini completion attempt %d failed: %v", attempt+1, err)
			continue
		}

		text := collectText(resp)
		if text == "" {
			lastErr = ErrEmptyCompletion
			continue
		}
		return text, nil
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrGenerationFailed, maxRetries, lastErr)
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
			log.Printf("Warning: Gemini candidate finished with reason: %s", candidate.FinishReason)
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(b.String())
}
