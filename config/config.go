package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all tuning knobs and provider settings for the pipeline.
// Thresholds are deliberately configuration, not constants: they were
// discovered empirically and change per corpus.
type Config struct {
	// Providers
	DatabaseURL  string
	GeminiAPIKey string
	GeminiModel  string
	TavilyAPIKey string
	Port         string

	// Chunker
	ChunkBaseSize int
	ChunkMaxSize  int
	ChunkMinSize  int
	ChunkOverlap  int
	CutWindow     int
	CutStep       int

	// Retrieval
	RetrievalTopK int
	MinSimilarity float64
	WebMaxResults int

	// Confidence gate. Documented default is 85: answers scoring below it
	// are returned together with supplement questions.
	ConfidenceThreshold int

	// Memory
	SummaryWordBudget     int
	SummaryTurnThreshold  int
	SummaryTokenThreshold int
	RecentTurnWindow      int

	// Timeouts
	TurnBudget        time.Duration
	OracleTimeout     time.Duration
	ConfidenceTimeout time.Duration
	SearchTimeout     time.Duration
	EmbedTimeout      time.Duration
}

var ErrMissingRequired = errors.New("missing required configuration")

// Load reads configuration from the environment. Callers in cmd/ load a
// .env file first. Missing DATABASE_URL or GEMINI_API_KEY is fatal for the
// caller; a missing TAVILY_API_KEY only disables the web retrieval path.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envString("GEMINI_MODEL", "gemini-1.5-flash"),
		TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),
		Port:         envString("PORT", "8080"),

		ChunkBaseSize: envInt("CHUNK_BASE_SIZE", 1024),
		ChunkMaxSize:  envInt("CHUNK_MAX_SIZE", 4096),
		ChunkMinSize:  envInt("CHUNK_MIN_SIZE", 120),
		ChunkOverlap:  envInt("CHUNK_OVERLAP", 200),
		CutWindow:     envInt("CUT_WINDOW", 200),
		CutStep:       envInt("CUT_STEP", 20),

		RetrievalTopK: envInt("RETRIEVAL_TOP_K", 4),
		MinSimilarity: envFloat("MIN_SIMILARITY", 0.30),
		WebMaxResults: envInt("WEB_MAX_RESULTS", 3),

		ConfidenceThreshold: envInt("CONFIDENCE_THRESHOLD", 85),

		SummaryWordBudget:     envInt("SUMMARY_WORD_BUDGET", 200),
		SummaryTurnThreshold:  envInt("SUMMARY_TURN_THRESHOLD", 12),
		SummaryTokenThreshold: envInt("SUMMARY_TOKEN_THRESHOLD", 6000),
		RecentTurnWindow:      envInt("RECENT_TURN_WINDOW", 6),

		TurnBudget:        envSeconds("TURN_BUDGET_SECONDS", 300),
		OracleTimeout:     envSeconds("ORACLE_TIMEOUT_SECONDS", 90),
		ConfidenceTimeout: envSeconds("CONFIDENCE_TIMEOUT_SECONDS", 30),
		SearchTimeout:     envSeconds("SEARCH_TIMEOUT_SECONDS", 30),
		EmbedTimeout:      envSeconds("EMBED_TIMEOUT_SECONDS", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL", ErrMissingRequired)
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
	}
	if cfg.ChunkMaxSize < cfg.ChunkBaseSize {
		return nil, fmt.Errorf("CHUNK_MAX_SIZE (%d) must be >= CHUNK_BASE_SIZE (%d)", cfg.ChunkMaxSize, cfg.ChunkBaseSize)
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}
