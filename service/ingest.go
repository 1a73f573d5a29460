package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"lawchat-backend/chunker"
	"lawchat-backend/config"
	"lawchat-backend/llm"
	"lawchat-backend/models"
	"lawchat-backend/storage"
)

// ChunkWriter is the write side of the retrieval index, used only during
// ingestion.
type ChunkWriter interface {
	ReplaceDocument(ctx context.Context, doc *models.Document, chunks []models.Chunk) error
}

// Ingestor rebuilds the retrieval index from the statute corpus. Rebuild is
// a full per-document replace and is safely re-runnable; it never runs
// concurrently with serving writes because the index has none.
type Ingestor struct {
	store        storage.Store
	chunker      *chunker.Chunker
	embedder     llm.Embedder
	index        ChunkWriter
	embedTimeout time.Duration
}

// NewIngestor creates an ingestor.
func NewIngestor(store storage.Store, ch *chunker.Chunker, embedder llm.Embedder, index ChunkWriter, cfg *config.Config) *Ingestor {
	return &Ingestor{
		store:        store,
		chunker:      ch,
		embedder:     embedder,
		index:        index,
		embedTimeout: cfg.EmbedTimeout,
	}
}

// RebuildIndex chunks, embeds, and indexes every .txt statute in the corpus
// store. A non-empty lawFilter restricts the rebuild to statutes whose
// title matches it (incremental mode). Returns the number of chunks
// indexed.
func (ing *Ingestor) RebuildIndex(ctx context.Context, lawFilter string) (int, error) {
	names, err := ing.store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to list corpus: %w", err)
	}

	total := 0
	ingested := 0
	for _, name := range names {
		if !strings.HasSuffix(name, ".txt") {
			continue
		}
		title := LawTitleFromFilename(name)
		if lawFilter != "" && title != lawFilter {
			continue
		}

		count, err := ing.ingestOne(ctx, name, title)
		if err != nil {
			return total, fmt.Errorf("failed to ingest %s: %w", name, err)
		}
		total += count
		ingested++
		log.Printf("Indexed %s: %d chunks", title, count)
	}

	if lawFilter != "" && ingested == 0 {
		return 0, fmt.Errorf("no corpus file matches law %q", lawFilter)
	}
	return total, nil
}

func (ing *Ingestor) ingestOne(ctx context.Context, name, title string) (int, error) {
	r, err := ing.store.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	text, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return 0, fmt.Errorf("failed to read corpus file: %w", err)
	}

	doc := models.Document{
		ID:           uuid.New(),
		LawTitle:     title,
		RevisionDate: RevisionDateFromFilename(name),
		SourcePath:   name,
		Text:         string(text),
		IngestedAt:   time.Now(),
	}

	chunks := ing.chunker.Split(ctx, doc)
	for i := range chunks {
		embedding, err := ing.embedChunk(ctx, &chunks[i])
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		chunks[i].Embedding = embedding
	}

	if err := ing.index.ReplaceDocument(ctx, &doc, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// embedChunk embeds a chunk with its law title prepended, anchoring the
// vector to the statute it came from.
func (ing *Ingestor) embedChunk(ctx context.Context, chunk *models.Chunk) ([]float64, error) {
	ectx, cancel := context.WithTimeout(ctx, ing.embedTimeout)
	defer cancel()

	text := fmt.Sprintf("법령명: %s\n%s", chunk.LawTitle, chunk.Text)
	return ing.embedder.Embed(ectx, text, llm.TaskRetrievalDocument)
}

// LawTitleFromFilename derives the statute title from a corpus filename:
// the base name up to the first parenthesis, trimmed. Corpus files are
// conventionally named "법령명(시행일자).txt".
func LawTitleFromFilename(name string) string {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	if i := strings.Index(base, "("); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSpace(base)
}

// RevisionDateFromFilename extracts the revision date from a corpus
// filename. The date is the last parenthesized group; earlier groups hold
// promulgation numbers. Nil when the filename carries none.
func RevisionDateFromFilename(name string) *string {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))

	open := strings.LastIndex(base, "(")
	if open < 0 {
		return nil
	}
	closing := strings.Index(base[open:], ")")
	if closing < 0 {
		return nil
	}
	date := strings.TrimSpace(base[open+1 : open+closing])
	if date == "" {
		return nil
	}
	return &date
}
