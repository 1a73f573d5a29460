package main

import (
	"context"
	"flag"
	"log"

	"lawchat-backend/chunker"
	"lawchat-backend/config"
	"lawchat-backend/llm"
	"lawchat-backend/repository"
	"lawchat-backend/service"
	"lawchat-backend/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	law := flag.String("law", "", "rebuild only the statute with this title (incremental mode)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	store, err := storage.NewStoreFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize corpus store: %v", err)
	}

	oracle, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, llm.GeminiWithModel(cfg.GeminiModel))
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	defer oracle.Close()

	ingestor := service.NewIngestor(
		store,
		chunker.New(oracle, cfg),
		llm.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.EmbedTimeout),
		repository.NewLawChunkRepository(pool),
		cfg,
	)

	count, err := ingestor.RebuildIndex(ctx, *law)
	if err != nil {
		log.Fatalf("Rebuild failed after indexing %d chunks: %v", count, err)
	}
	log.Printf("Rebuild complete: %d chunks indexed", count)
}
