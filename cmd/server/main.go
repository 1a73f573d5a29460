package main

import (
	"context"
	"log"

	"lawchat-backend/config"
	"lawchat-backend/handlers"
	"lawchat-backend/llm"
	"lawchat-backend/repository"
	"lawchat-backend/search"
	"lawchat-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := initPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize Postgres:", err)
	}
	defer db.Close()

	// Repositories
	chunkRepo := repository.NewLawChunkRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	// Providers
	oracle, err := llm.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, llm.GeminiWithModel(cfg.GeminiModel))
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	defer oracle.Close()
	log.Println("Gemini client initialized")

	embedder := llm.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.EmbedTimeout)

	var webSearch search.Searcher
	if cfg.TavilyAPIKey != "" {
		webSearch = search.NewTavilyClient(cfg.TavilyAPIKey, cfg.SearchTimeout)
		log.Println("Tavily client initialized")
	} else {
		log.Printf("Warning: TAVILY_API_KEY not set, web retrieval path disabled")
	}

	// Pipeline
	pipeline := service.NewPipeline(
		service.NewRouter(oracle, webSearch != nil, cfg),
		service.NewExecutor(embedder, chunkRepo, webSearch, cfg),
		service.NewSynthesizer(oracle, cfg),
		service.NewAssessor(oracle, cfg),
		service.NewSummarizer(oracle, cfg),
		conversationRepo,
		cfg,
	)

	chatHandler := handlers.NewChatHandler(pipeline)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		api.POST("/chat", chatHandler.HandleChat)
		api.GET("/conversations/:id/history", chatHandler.GetHistory)
		api.DELETE("/conversations/:id", chatHandler.ClearConversation)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	// Enable pgvector extension
	ctx := context.Background()
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
		log.Println("This may be normal if extension is already installed or requires superuser privileges")
	} else {
		log.Println("pgvector extension enabled")
	}

	log.Println("Postgres connection established with pgvector support")
	return pool, nil
}
