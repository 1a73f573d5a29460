package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Enable pgvector extension
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
	} else {
		log.Println("✓ pgvector extension enabled")
	}

	// Drop tables if they exist (for development - remove in production)
	for _, table := range []string{"law_chunks", "documents", "conversation_turns", "conversations"} {
		_, err = pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		if err != nil {
			log.Fatalf("Failed to drop table %s: %v", table, err)
		}
	}
	log.Println("✓ Dropped existing tables (if any)")

	schemas := []struct {
		name string
		sql  string
	}{
		{
			name: "documents",
			sql: `
CREATE TABLE documents (
    id UUID PRIMARY KEY,
    law_title VARCHAR(255) NOT NULL UNIQUE,
    revision_date VARCHAR(50),
    source_path TEXT NOT NULL,
    ingested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
		},
		{
			name: "law_chunks",
			sql: `
CREATE TABLE law_chunks (
    id UUID PRIMARY KEY,
    document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    chunk_index INTEGER NOT NULL,

    -- Offsets within the document text, in runes
    start_offset INTEGER NOT NULL,
    end_offset INTEGER NOT NULL,
    overlap_len INTEGER NOT NULL DEFAULT 0,

    chunk_text TEXT NOT NULL,

    -- Legal hierarchy metadata
    law_title VARCHAR(255) NOT NULL,
    article_number VARCHAR(50),
    article_title VARCHAR(255),

    complexity DOUBLE PRECISION NOT NULL DEFAULT 0,
    split_method VARCHAR(20) NOT NULL CHECK (split_method IN ('structural', 'adaptive', 'fallback')),

    embedding vector(768),

    CONSTRAINT chunk_order_unique UNIQUE (document_id, chunk_index)
);`,
		},
		{
			name: "conversations",
			sql: `
CREATE TABLE conversations (
    id VARCHAR(255) PRIMARY KEY,
    summary TEXT NOT NULL DEFAULT '',
    summarized_through INTEGER NOT NULL DEFAULT 0
);`,
		},
		{
			name: "conversation_turns",
			sql: `
CREATE TABLE conversation_turns (
    id UUID PRIMARY KEY,
    conversation_id VARCHAR(255) NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    user_text TEXT NOT NULL,
    answer_text TEXT NOT NULL,
    confidence_score INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT turn_seq_unique UNIQUE (conversation_id, seq)
);`,
		},
	}

	for _, schema := range schemas {
		_, err = pool.Exec(ctx, schema.sql)
		if err != nil {
			log.Fatalf("Failed to create %s table: %v", schema.name, err)
		}
		log.Printf("✓ Created %s table", schema.name)
	}

	// Create indexes
	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Vector similarity search (HNSW)",
			sql: `CREATE INDEX idx_embedding_hnsw ON law_chunks
USING hnsw (embedding vector_cosine_ops)
WITH (m = 16, ef_construction = 64);`,
		},
		{
			name: "Law title filtering",
			sql:  "CREATE INDEX idx_law_title ON law_chunks(law_title);",
		},
		{
			name: "Article lookup",
			sql:  "CREATE INDEX idx_article_number ON law_chunks(law_title, article_number) WHERE article_number IS NOT NULL;",
		},
		{
			name: "Turn history lookup",
			sql:  "CREATE INDEX idx_turns_conversation ON conversation_turns(conversation_id, seq);",
		},
	}

	for _, idx := range indexes {
		_, err = pool.Exec(ctx, idx.sql)
		if err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.name, err)
		} else {
			log.Printf("✓ Created index: %s", idx.name)
		}
	}

	fmt.Println("\n✅ Database schema created successfully!")
	fmt.Println("   Tables: documents, law_chunks, conversations, conversation_turns")
}
