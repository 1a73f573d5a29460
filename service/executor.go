package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"lawchat-backend/config"
	"lawchat-backend/llm"
	"lawchat-backend/models"
	"lawchat-backend/search"
)

// ChunkIndex is the read side of the retrieval index.
type ChunkIndex interface {
	Search(ctx context.Context, embedding []float64, k int, lawTitle string) ([]models.Chunk, error)
}

// Executor runs the retrieval paths selected by the router. The paths share
// no mutable state and run concurrently; a failed path only loses its own
// results.
type Executor struct {
	embedder      llm.Embedder
	index         ChunkIndex
	web           search.Searcher
	topK          int
	minSimilarity float64
	webMaxResults int
	embedTimeout  time.Duration
	searchTimeout time.Duration
}

// NewExecutor creates an executor. web may be nil; the router never selects
// the WEB path in that case, and Retrieve skips it defensively regardless.
func NewExecutor(embedder llm.Embedder, index ChunkIndex, web search.Searcher, cfg *config.Config) *Executor {
	return &Executor{
		embedder:      embedder,
		index:         index,
		web:           web,
		topK:          cfg.RetrievalTopK,
		minSimilarity: cfg.MinSimilarity,
		webMaxResults: cfg.WebMaxResults,
		embedTimeout:  cfg.EmbedTimeout,
		searchTimeout: cfg.SearchTimeout,
	}
}

// Retrieve fans out over the decided paths and returns merged evidence:
// local results before web results, each sorted by descending score. Full
// failure of both paths returns empty evidence, never an error.
func (e *Executor) Retrieve(ctx context.Context, q models.Query, decision models.RoutingDecision) []models.Evidence {
	var localEv, webEv []models.Evidence

	g, gctx := errgroup.WithContext(ctx)

	if decision.IncludesLocal() {
		g.Go(func() error {
			ev, err := e.retrieveLocal(gctx, q.Retrieval())
			if err != nil {
				log.Printf("Warning: local retrieval failed: %v", err)
				return nil
			}
			localEv = ev
			return nil
		})
	}

	if decision.IncludesWeb() && e.web != nil {
		g.Go(func() error {
			ev, err := e.retrieveWeb(gctx, q.Retrieval())
			if err != nil {
				log.Printf("Warning: web retrieval failed: %v", err)
				return nil
			}
			webEv = ev
			return nil
		})
	}

	g.Wait()

	sortByScore(localEv)
	sortByScore(webEv)
	return append(localEv, webEv...)
}

func (e *Executor) retrieveLocal(ctx context.Context, query string) ([]models.Evidence, error) {
	ectx, cancel := context.WithTimeout(ctx, e.embedTimeout)
	embedding, err := e.embedder.Embed(ectx, query, llm.TaskRetrievalQuery)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	sctx, cancel := context.WithTimeout(ctx, e.searchTimeout)
	defer cancel()
	chunks, err := e.index.Search(sctx, embedding, e.topK, "")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var evidence []models.Evidence
	for _, chunk := range chunks {
		// Below the similarity floor is noise, not low-confidence evidence.
		if chunk.Similarity() < e.minSimilarity {
			continue
		}
		evidence = append(evidence, models.Evidence{
			Kind:      models.EvidenceLocal,
			Text:      chunk.Text,
			Source:    chunkCitation(chunk),
			Score:     chunk.Similarity(),
			Retrieved: now,
		})
	}
	return evidence, nil
}

func (e *Executor) retrieveWeb(ctx context.Context, query string) ([]models.Evidence, error) {
	sctx, cancel := context.WithTimeout(ctx, e.searchTimeout)
	defer cancel()

	results, err := e.web.Search(sctx, query, e.webMaxResults)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var evidence []models.Evidence
	for _, r := range results {
		evidence = append(evidence, models.Evidence{
			Kind:      models.EvidenceWeb,
			Text:      r.Content,
			Source:    r.Title,
			URL:       r.URL,
			Score:     r.Score,
			Retrieved: now,
		})
	}
	return evidence, nil
}

// chunkCitation names a local chunk as law title plus article when known.
func chunkCitation(chunk models.Chunk) string {
	if chunk.ArticleNumber != nil {
		return chunk.LawTitle + " " + *chunk.ArticleNumber
	}
	return chunk.LawTitle
}

func sortByScore(evidence []models.Evidence) {
	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].Score > evidence[j].Score
	})
}
