package repository

import (
	"context"
	"fmt"
	"strings"

	"lawchat-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LawChunkRepository handles database operations for the statute chunk index.
// The index is read-only during serving; writes happen only through
// ReplaceDocument during ingestion.
type LawChunkRepository struct {
	db *pgxpool.Pool
}

// NewLawChunkRepository creates a new law chunk repository
func NewLawChunkRepository(db *pgxpool.Pool) *LawChunkRepository {
	return &LawChunkRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Search performs a cosine similarity search over the chunk index.
// lawTitle optionally filters to a single statute; empty means no filter.
func (r *LawChunkRepository) Search(ctx context.Context, embedding []float64, k int, lawTitle string) ([]models.Chunk, error) {
	if len(embedding) != 768 {
		return nil, fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	vectorStr := formatVector(embedding)

	var filter string
	args := []interface{}{vectorStr}
	if lawTitle != "" {
		args = append(args, lawTitle)
		filter = "WHERE law_title = $2"
	}
	args = append(args, k)

	query := fmt.Sprintf(`
		SELECT
			id,
			document_id,
			chunk_index,
			start_offset,
			end_offset,
			overlap_len,
			chunk_text,
			law_title,
			article_number,
			article_title,
			complexity,
			split_method,
			embedding <=> $1::vector AS distance
		FROM law_chunks
		%s
		ORDER BY
			embedding <=> $1::vector
		LIMIT $%d`, filter, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query law chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Index,
			&chunk.Start,
			&chunk.End,
			&chunk.Overlap,
			&chunk.Text,
			&chunk.LawTitle,
			&chunk.ArticleNumber,
			&chunk.ArticleTitle,
			&chunk.Complexity,
			&chunk.Method,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan law chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

// ReplaceDocument atomically replaces a document and its entire chunk set.
// Any previous document with the same law title is removed first, so the
// operation is safely re-runnable.
func (r *LawChunkRepository) ReplaceDocument(ctx context.Context, doc *models.Document, chunks []models.Chunk) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM documents WHERE law_title = $1`, doc.LawTitle)
	if err != nil {
		return fmt.Errorf("failed to delete previous document: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, law_title, revision_date, source_path, ingested_at)
		VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.LawTitle, doc.RevisionDate, doc.SourcePath, doc.IngestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	for i := range chunks {
		chunk := &chunks[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO law_chunks (
				id, document_id, chunk_index, start_offset, end_offset,
				overlap_len, chunk_text, law_title, article_number,
				article_title, complexity, split_method, embedding
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::vector
			)`,
			chunk.ID,
			chunk.DocumentID,
			chunk.Index,
			chunk.Start,
			chunk.End,
			chunk.Overlap,
			chunk.Text,
			chunk.LawTitle,
			chunk.ArticleNumber,
			chunk.ArticleTitle,
			chunk.Complexity,
			chunk.Method,
			formatVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit document replacement: %w", err)
	}
	return nil
}

// CountChunks returns the number of indexed chunks.
func (r *LawChunkRepository) CountChunks(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM law_chunks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count law chunks: %w", err)
	}
	return count, nil
}
