package service

import (
	"context"
	"sync"
	"time"

	"lawchat-backend/config"
	"lawchat-backend/llm"
	"lawchat-backend/models"
	"lawchat-backend/search"
)

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type embedderFunc func(ctx context.Context, text string, task llm.EmbeddingTask) ([]float64, error)

func (f embedderFunc) Embed(ctx context.Context, text string, task llm.EmbeddingTask) ([]float64, error) {
	return f(ctx, text, task)
}

type searcherFunc func(ctx context.Context, query string, maxResults int) ([]search.Result, error)

func (f searcherFunc) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	return f(ctx, query, maxResults)
}

type indexFunc func(ctx context.Context, embedding []float64, k int, lawTitle string) ([]models.Chunk, error)

func (f indexFunc) Search(ctx context.Context, embedding []float64, k int, lawTitle string) ([]models.Chunk, error) {
	return f(ctx, embedding, k, lawTitle)
}

// memoryStore is an in-memory ConversationStore for pipeline tests.
type memoryStore struct {
	mu     sync.Mutex
	states map[string]*models.ConversationState
}

func newMemoryStore() *memoryStore {
	return &memoryStore{states: make(map[string]*models.ConversationState)}
}

func (s *memoryStore) Load(ctx context.Context, id string) (*models.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[id]
	if !ok {
		return &models.ConversationState{ID: id}, nil
	}
	copied := *state
	copied.Turns = append([]models.Turn(nil), state.Turns...)
	return &copied, nil
}

func (s *memoryStore) Append(ctx context.Context, turn *models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[turn.ConversationID]
	if !ok {
		state = &models.ConversationState{ID: turn.ConversationID}
		s.states[turn.ConversationID] = state
	}
	turn.CreatedAt = time.Now()
	state.Turns = append(state.Turns, *turn)
	return nil
}

func (s *memoryStore) UpdateSummary(ctx context.Context, id, summary string, through int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[id]
	if !ok {
		state = &models.ConversationState{ID: id}
		s.states[id] = state
	}
	state.Summary = summary
	state.SummarizedThrough = through
	return nil
}

func (s *memoryStore) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}

func (s *memoryStore) turnCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[id]; ok {
		return len(state.Turns)
	}
	return 0
}

func testConfig() *config.Config {
	return &config.Config{
		ChunkBaseSize:         1024,
		ChunkMaxSize:          4096,
		ChunkMinSize:          120,
		ChunkOverlap:          200,
		CutWindow:             200,
		CutStep:               20,
		RetrievalTopK:         4,
		MinSimilarity:         0.30,
		WebMaxResults:         3,
		ConfidenceThreshold:   85,
		SummaryWordBudget:     200,
		SummaryTurnThreshold:  12,
		SummaryTokenThreshold: 6000,
		RecentTurnWindow:      6,
		TurnBudget:            5 * time.Second,
		OracleTimeout:         time.Second,
		ConfidenceTimeout:     time.Second,
		SearchTimeout:         time.Second,
		EmbedTimeout:          time.Second,
	}
}

func failingCompleter(msg string) completerFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return "", errTest(msg)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
