// Package search provides the web retrieval path over the Tavily API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const tavilyAPI = "https://api.tavily.com/search"

// ErrSearchFailed is returned when the provider cannot serve the query.
var ErrSearchFailed = errors.New("web search failed")

// Result is one web search hit. Score is the provider's relevance score and
// is not comparable with local similarity scores.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchRequest is the Tavily search request body.
type SearchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

// SearchResponse is the Tavily search response body.
type SearchResponse struct {
	Results []Result `json:"results"`
}

// Searcher issues web search queries.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// TavilyClient implements Searcher against the Tavily REST API.
type TavilyClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewTavilyClient creates a client with the given per-call timeout.
func NewTavilyClient(apiKey string, timeout time.Duration) *TavilyClient {
	return &TavilyClient{
		apiKey:     apiKey,
		endpoint:   tavilyAPI,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search runs a basic-depth search and returns up to maxResults hits.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	reqBody := SearchRequest{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  maxResults,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrSearchFailed, resp.StatusCode)
	}

	var apiResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if maxResults > 0 && len(apiResp.Results) > maxResults {
		apiResp.Results = apiResp.Results[:maxResults]
	}
	return apiResp.Results, nil
}
