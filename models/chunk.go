package models

import (
	"github.com/google/uuid"
)

// SplitMethod records how a chunk's boundaries were chosen.
type SplitMethod string

const (
	// SplitStructural: the segment between two legal boundary markers fit
	// the target size and was emitted as-is.
	SplitStructural SplitMethod = "structural"
	// SplitAdaptive: the cut point was selected by complexity-adjusted
	// target sizing and continuity scoring.
	SplitAdaptive SplitMethod = "adaptive"
	// SplitFallback: fixed-size split at the nearest whitespace, used when
	// the oracle was unavailable. Ingestion never fails on this path.
	SplitFallback SplitMethod = "fallback"
)

// Chunk is a contiguous substring of a Document sized for retrieval.
//
// Start/End are half-open rune offsets of the chunk body within the document
// text. Overlap is the number of runes carried over from the end of the
// previous chunk and prepended to Text; concatenating chunk texts in order
// while skipping each chunk's overlap prefix reconstructs the document
// exactly.
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Index      int       `json:"index"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Overlap    int       `json:"overlap"`
	Text       string    `json:"text"`

	// Legal hierarchy tags, populated when detected at the chunk head.
	LawTitle      string  `json:"law_title"`
	ArticleNumber *string `json:"article_number,omitempty"`
	ArticleTitle  *string `json:"article_title,omitempty"`

	Complexity float64     `json:"complexity"`
	Method     SplitMethod `json:"split_method"`

	// Embedding is set during ingestion and owned by the index afterwards.
	Embedding []float64 `json:"-"`

	// Distance is the cosine distance reported by a vector search; zero
	// outside of query results.
	Distance float64 `json:"distance,omitempty"`
}

// Similarity converts the pgvector cosine distance into a similarity score.
func (c Chunk) Similarity() float64 {
	return 1 - c.Distance
}
