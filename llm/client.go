// Package llm abstracts the text-completion and embedding capabilities the
// pipeline depends on. Every call into a provider is a suspension point:
// potentially slow, always timeout-bounded by the caller, and replaceable by
// a deterministic fake in tests.
package llm

import (
	"context"
	"errors"
	"time"
)

// Completer is the narrow oracle interface used for complexity scoring,
// continuity scoring, query rewriting, synthesis, and confidence scoring.
// Providers return free-form text; callers must parse robustly and degrade
// on parse failure.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbeddingTask selects the provider-side embedding task type.
type EmbeddingTask string

const (
	TaskRetrievalQuery    EmbeddingTask = "RETRIEVAL_QUERY"
	TaskRetrievalDocument EmbeddingTask = "RETRIEVAL_DOCUMENT"
)

// Embedder produces a normalized embedding vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string, task EmbeddingTask) ([]float64, error)
}

var (
	ErrEmptyCompletion  = errors.New("provider returned empty completion")
	ErrEmbeddingFailed  = errors.New("failed to generate embedding")
	ErrGenerationFailed = errors.New("failed to generate content")
)

const (
	maxRetries     = 3
	initialBackoff = time.Second
)
